package translate

import "strings"

// BuildInstruction returns the fixed directive sent with every image of a
// batch. targetLanguage is interpolated verbatim.
func BuildInstruction(targetLanguage string) string {
	parts := []string{
		"Professionally translate the readable poster text into " + targetLanguage + ",",
		"keeping the layout, style and imagery consistent with the original.",
		"Text and logos on product bodies, trademarks and packaging must stay untouched; do not translate them.",
		"Output a single composited full poster image.",
	}
	return strings.Join(parts, " ")
}
