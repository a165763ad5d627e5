package resolve

const UnknownMonth = "Unknown Month"

var monthFolders = map[string]string{
	"January":   "01 - January",
	"February":  "02 - February",
	"March":     "03 - March",
	"April":     "04 - April",
	"May":       "05 - May",
	"June":      "06 - June",
	"July":      "07 - July",
	"August":    "08 - August",
	"September": "09 - September",
	"October":   "10 - October",
	"November":  "11 - November",
	"December":  "12 - December",
}

// FormatMonth maps a full English month name to its folder label,
// "March" -> "03 - March". Anything else yields UnknownMonth.
func FormatMonth(name string) string {
	if label, ok := monthFolders[name]; ok {
		return label
	}
	return UnknownMonth
}
