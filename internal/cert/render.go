package cert

import (
	"bytes"
	"fmt"
	"image/jpeg"
	"image/png"
	"strconv"
	"time"

	"github.com/go-pdf/fpdf"

	"github.com/ceureg/ceureg/internal/model"
)

// Page geometry: a single fixed-size landscape page. All field positions
// are absolute offsets from the top-left origin; this is a template, not a
// flow layout.
const (
	pageWidth  = 792.0
	pageHeight = 612.0

	labelFontSize   = 7.0
	headerFontSize  = 18.0
	titleFontSize   = 24.0
	badgeFontSize   = 10.0
	signatureSize   = 20.0
	verifyFontSize  = 8.0
	signatureScale  = 0.3
	defaultModality = "Online Synchronous"

	certificateTitle = "Learning Continuing Education"
	scriptFontFamily = "signature-script"
)

// Fields carries everything printed on a certificate.
type Fields struct {
	ParticipantName  string
	CertNumber       string
	CourseTitle      string
	IssueDate        string
	Hours            float64
	EthicsHours      float64
	SupervisionHours float64
	Instructor       string
	ProviderName     string
	ProviderID       string
	Coordinator      string
	OrganizationName string
	ProviderType     model.ProviderType
	Modality         string
}

// Assets carries the pre-resolved binary resources a render may embed.
// Either may be nil; rendering falls back to text and standard fonts.
type Assets struct {
	SignatureImage []byte
	ScriptFont     []byte
}

// fieldSpec positions one labeled value: the label is centered in the
// field width just below the offset, the value centered just above it.
type fieldSpec struct {
	x     float64
	top   float64
	w     float64
	label string
	value string
	size  float64
}

type headerSpec struct {
	top  float64
	text string
}

// attestationLayout is the provider-type branch of the lower page half.
// Organization and Individual share one drawing routine over two tables.
type attestationLayout struct {
	headers         []headerSpec
	fields          []fieldSpec
	sigX            float64
	sigW            float64
	sigImageBottom  float64
	sigTextBaseline float64
}

// Render produces the certificate document for one recipient. Rendering
// either succeeds completely or fails with a single error; asset problems
// never fail a render, they downgrade to text/standard-font fallbacks.
func Render(f Fields, assets Assets) ([]byte, error) {
	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "pt",
		Size:           fpdf.SizeType{Wd: pageWidth, Ht: pageHeight},
	})
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	// Zero metadata dates keep identical inputs producing identical bytes.
	pdf.SetCreationDate(time.Time{})
	pdf.SetModificationDate(time.Time{})
	// Sorted catalog objects keep font emission order stable across renders.
	pdf.SetCatalogSort(true)
	pdf.AddPage()

	scriptFamily := "Helvetica"
	if isTrueTypeFont(assets.ScriptFont) {
		pdf.AddUTF8FontFromBytes(scriptFontFamily, "", assets.ScriptFont)
		if pdf.Err() {
			pdf.ClearError()
		} else {
			scriptFamily = scriptFontFamily
		}
	}

	r := &renderer{pdf: pdf}

	r.drawTitle(certificateTitle)
	r.drawProviderBadge(f)

	for _, fs := range commonFields(f) {
		r.drawField(fs)
	}
	r.drawSectionHeader(headerSpec{top: 180, text: "Event Information"})

	lay := individualLayout(f)
	if isOrganization(f) {
		lay = organizationLayout(f)
	}
	for _, h := range lay.headers {
		r.drawSectionHeader(h)
	}
	for _, fs := range lay.fields {
		r.drawField(fs)
	}
	r.drawSignature(lay, f, assets.SignatureImage, scriptFamily)

	token := VerificationToken(f.ParticipantName, f.CourseTitle, f.IssueDate)
	r.drawVerification(token)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render certificate: %w", err)
	}
	return buf.Bytes(), nil
}

func isOrganization(f Fields) bool {
	return f.ProviderType == model.ProviderTypeOrganization || f.OrganizationName != ""
}

func commonFields(f Fields) []fieldSpec {
	certNumber := f.CertNumber
	if certNumber == "" {
		certNumber = "N/A"
	}
	modality := f.Modality
	if modality == "" {
		modality = defaultModality
	}
	return []fieldSpec{
		{80, 120, 300, "Participant Name", f.ParticipantName, 16},
		{412, 120, 300, "Participant BACB Certification Number", certNumber, 16},
		{80, 230, 632, "Event Name", f.CourseTitle, 14},
		{80, 280, 300, "Event Date", f.IssueDate, 12},
		{412, 280, 300, "Event Modality", modality, 12},
		{80, 330, 200, "Total Number of CEUs", formatHours(f.Hours), 12},
		{296, 330, 200, "Number of CEUs in Ethics", formatHours(f.EthicsHours), 12},
		{512, 330, 200, "Number of CEUs in Supervision", formatHours(f.SupervisionHours), 12},
	}
}

func organizationLayout(f Fields) attestationLayout {
	return attestationLayout{
		headers: []headerSpec{
			{400, "ACE Coordinator Information"},
			{500, "ACE Provider Information"},
		},
		fields: []fieldSpec{
			{296, 440, 200, "ACE Coordinator Name", f.Coordinator, 12},
			{80, 540, 200, "ACE Provider Name", f.ProviderName, 12},
			{296, 540, 200, "ACE Provider Number", f.ProviderID, 12},
			{512, 540, 200, "Instructor Name (if applicable)", f.Instructor, 12},
			{80, 590, 300, "ACE Provider Signature", "", 12},
			{480, 590, 232, "Date", f.IssueDate, 12},
		},
		sigX:            80,
		sigW:            250,
		sigImageBottom:  590,
		sigTextBaseline: 580,
	}
}

func individualLayout(f Fields) attestationLayout {
	return attestationLayout{
		headers: []headerSpec{
			{420, "Individual ACE Provider Information"},
		},
		fields: []fieldSpec{
			{80, 470, 200, "ACE Provider Name", f.ProviderName, 12},
			{296, 470, 200, "ACE Provider Number", f.ProviderID, 12},
			{512, 470, 200, "Business Name (if applicable)", f.OrganizationName, 12},
			{80, 540, 400, "ACE Provider Signature", "", 12},
			{512, 540, 200, "Date", f.IssueDate, 12},
		},
		sigX:            80,
		sigW:            300,
		sigImageBottom:  540,
		sigTextBaseline: 530,
	}
}

type renderer struct {
	pdf *fpdf.Fpdf
}

func (r *renderer) drawTitle(text string) {
	r.pdf.SetFont("Helvetica", "B", titleFontSize)
	r.pdf.SetTextColor(0, 0, 0)
	w := r.pdf.GetStringWidth(text)
	r.pdf.Text((pageWidth-w)/2, 60, text)
}

func (r *renderer) drawProviderBadge(f Fields) {
	text := "Individual Provider"
	if isOrganization(f) {
		text = "Organization Provider"
	}
	r.pdf.SetFont("Helvetica", "B", badgeFontSize)
	r.pdf.SetTextColor(0, 102, 153)
	r.pdf.Text(pageWidth-150, 60, text)
}

func (r *renderer) drawSectionHeader(h headerSpec) {
	r.pdf.SetFont("Helvetica", "B", headerFontSize)
	r.pdf.SetTextColor(0, 0, 0)
	w := r.pdf.GetStringWidth(h.text)
	r.pdf.Text((pageWidth-w)/2, h.top, h.text)
}

func (r *renderer) drawField(fs fieldSpec) {
	r.pdf.SetFont("Helvetica", "", labelFontSize)
	r.pdf.SetTextColor(77, 77, 77)
	lw := r.pdf.GetStringWidth(fs.label)
	r.pdf.Text(fs.x+(fs.w-lw)/2, fs.top+10, fs.label)

	r.pdf.SetFont("Helvetica", "B", fs.size)
	r.pdf.SetTextColor(0, 0, 0)
	vw := r.pdf.GetStringWidth(fs.value)
	r.pdf.Text(fs.x+(fs.w-vw)/2, fs.top-6, fs.value)
}

// drawSignature embeds the signature image scaled and centered in its
// block; without a usable image it renders the first non-empty of
// coordinator, provider and instructor names in the script font.
func (r *renderer) drawSignature(lay attestationLayout, f Fields, image []byte, scriptFamily string) {
	if r.placeSignatureImage(lay, image) {
		return
	}

	name := f.Coordinator
	if name == "" {
		name = f.ProviderName
	}
	if name == "" {
		name = f.Instructor
	}
	if name == "" {
		return
	}

	r.pdf.SetFont(scriptFamily, "", signatureSize)
	r.pdf.SetTextColor(0, 0, 0)
	w := r.pdf.GetStringWidth(name)
	r.pdf.Text(lay.sigX+(lay.sigW-w)/2, lay.sigTextBaseline, name)
}

func (r *renderer) placeSignatureImage(lay attestationLayout, data []byte) bool {
	imageType, ok := detectImageType(data)
	if !ok {
		return false
	}
	opts := fpdf.ImageOptions{ImageType: imageType}
	info := r.pdf.RegisterImageOptionsReader("signature", opts, bytes.NewReader(data))
	if info == nil || r.pdf.Err() {
		// DecodeConfig only reads the header; fpdf may still reject the
		// stream. Clear the sticky error and use the text signature.
		r.pdf.ClearError()
		return false
	}
	w := info.Width() * signatureScale
	h := info.Height() * signatureScale
	r.pdf.ImageOptions("signature", lay.sigX+(lay.sigW-w)/2, lay.sigImageBottom-h, w, h, false, opts, 0, "")
	return true
}

func (r *renderer) drawVerification(token string) {
	r.pdf.SetFont("Helvetica", "", verifyFontSize)
	r.pdf.SetTextColor(153, 153, 153)
	r.pdf.Text(pageWidth/2-80, pageHeight-10, "Verification ID: "+token)
}

// detectImageType reports whether data decodes as one of the two supported
// raster formats. Anything else falls back to the text signature.
func detectImageType(data []byte) (string, bool) {
	if len(data) == 0 {
		return "", false
	}
	if _, err := png.DecodeConfig(bytes.NewReader(data)); err == nil {
		return "PNG", true
	}
	if _, err := jpeg.DecodeConfig(bytes.NewReader(data)); err == nil {
		return "JPG", true
	}
	return "", false
}

// isTrueTypeFont sniffs the sfnt magic so a bad font download degrades to
// the standard font instead of poisoning the document.
func isTrueTypeFont(data []byte) bool {
	if len(data) < 4 {
		return false
	}
	switch string(data[:4]) {
	case "\x00\x01\x00\x00", "true", "OTTO", "ttcf":
		return true
	}
	return false
}

func formatHours(h float64) string {
	return strconv.FormatFloat(h, 'f', -1, 64)
}
