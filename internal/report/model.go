// Package report composes the report model and renders it.
package report

import (
	"strings"

	"exception-reporter/internal/assembly"
	"exception-reporter/internal/capture"
	"exception-reporter/internal/system"
	"exception-reporter/internal/templates"
)

// Model is the flattened view of one report. It is both the template
// context and the JSON body posted to a web service.
type Model struct {
	ReportID     string                  `json:"report_id"`
	App          AppInfo                 `json:"app"`
	Error        ErrorInfo               `json:"error"`
	Machine      system.HostInfo         `json:"machine"`
	AssemblyRefs []assembly.Ref          `json:"assembly_refs"`
	SysInfo      string                  `json:"sys_info"`
	Facts        []*system.SysInfoResult `json:"facts,omitempty"`
}

func (Model) Kind() templates.Kind { return templates.KindReport }

type AppInfo struct {
	Name         string `json:"name"`
	Version      string `json:"version"`
	CompanyName  string `json:"company_name,omitempty"`
	UserName     string `json:"user_name,omitempty"`
	ContactEmail string `json:"contact_email,omitempty"`
	WebURL       string `json:"web_url,omitempty"`
}

type ErrorInfo struct {
	Date           string                      `json:"date"`
	Message        string                      `json:"message"`
	Explanation    string                      `json:"explanation,omitempty"`
	FullStackTrace string                      `json:"full_stack_trace"`
	Exceptions     []capture.CapturedException `json:"exceptions"`
}

// FormatFacts renders a fact tree as indented text.
func FormatFacts(facts []*system.SysInfoResult) string {
	var b strings.Builder
	for _, r := range facts {
		b.WriteString("[" + r.Name + "]\n")
		for _, n := range r.Nodes {
			b.WriteString("  " + n + "\n")
		}
		for _, c := range r.Children {
			writeFactChild(&b, c, 2)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func writeFactChild(b *strings.Builder, r *system.SysInfoResult, depth int) {
	indent := strings.Repeat("  ", depth)
	for _, n := range r.Nodes {
		b.WriteString(indent + n + "\n")
	}
	for _, c := range r.Children {
		writeFactChild(b, c, depth+1)
	}
}
