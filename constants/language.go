package constants

// LanguageOptions is the default set of target languages offered by the UI.
// The selected name is interpolated verbatim into the instruction text.
var LanguageOptions = []string{
	"Simplified Chinese",
	"English",
	"Japanese",
	"Korean",
	"German",
	"French",
	"Spanish",
	"Russian",
	"Portuguese",
	"Arabic",
	"Italian",
	"Thai",
	"Vietnamese",
	"Indonesian",
}

// DefaultTargetLanguage is the dropdown pre-selection.
const DefaultTargetLanguage = "English"
