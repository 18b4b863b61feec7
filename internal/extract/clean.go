package extract

import (
	"regexp"
	"strings"
)

var (
	decorativeRe   = regexp.MustCompile(`[^\w\s.,!?]`)
	multiSpaceRe   = regexp.MustCompile(`\s{2,}`)
	boilerplateRe  = regexp.MustCompile(`(?i)\b(Image|Photo|Screenshot)\b`)
	nonPrintableRe = regexp.MustCompile(`[^\x00-\x7F]+`)
)

// CleanOCRText strips decorative characters, collapses whitespace, removes
// boilerplate words and non-printable characters from raw OCR output. The
// result length drives image classification, so the rules are fixed.
func CleanOCRText(text string) string {
	text = strings.TrimSpace(strings.ReplaceAll(text, "…", ""))
	text = decorativeRe.ReplaceAllString(text, "")
	text = strings.TrimSpace(multiSpaceRe.ReplaceAllString(text, " "))
	text = boilerplateRe.ReplaceAllString(text, "")
	text = nonPrintableRe.ReplaceAllString(text, "")
	return text
}

// TruncateCaption cuts a caption back to its last complete sentence (last
// period) or, failing that, its last complete clause (last comma). Token-budget
// truncation otherwise leaves captions hanging mid-sentence.
func TruncateCaption(text string) string {
	if i := strings.LastIndex(text, "."); i != -1 {
		return text[:i+1]
	}
	if i := strings.LastIndex(text, ","); i != -1 {
		return text[:i+1]
	}
	return text
}

// defaultBoilerplate lists the recurring header/footer strings stripped from
// every linearized element.
var defaultBoilerplate = []string{
	"OCTIME - Module web Employé ",
	"OCTIME - Gestion v 11 ",
	"                                                                                                                                                                                                                  © 2025 OCTIME",
}

func stripBoilerplate(content string, boilerplate []string) string {
	for _, b := range boilerplate {
		content = strings.ReplaceAll(content, b, "")
	}
	return content
}
