package validate

import "fmt"

// Text field length limits for visitor-submitted values.
const (
	MaxReportFieldLength = 2048
	MaxSiteNameLength    = 200
	MaxEmailLength       = 254
)

func checkLen(value string, max int, field string) string {
	if len(value) > max {
		return fmt.Sprintf("%s must be %d characters or fewer", field, max)
	}
	return ""
}

func ReportField(s string) string { return checkLen(s, MaxReportFieldLength, "report field") }
func SiteName(s string) string    { return checkLen(s, MaxSiteNameLength, "site name") }
func Email(s string) string       { return checkLen(s, MaxEmailLength, "email") }
