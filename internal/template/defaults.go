package template

// Template names for each kind of entry
const (
	TemplateLine  = "line"
	TemplateLog   = "log"
	TemplateEvent = "event"
	TemplatePod   = "pod"
)

// DefaultTemplates contains the built-in entry templates. Each template
// receives an entry plus the available Width.
var DefaultTemplates = map[string]string{
	TemplateLine: `{{ level .Level .Title }}
{{- if .Body }}
{{ indent 2 .Body }}
{{- end }}`,

	TemplateLog: `{{ if not .Time.IsZero }}{{ muted (timestamp .Time) }} {{ end }}
{{- level .Level .Title }}
{{- if .Body }}
{{ indent 2 .Body }}
{{- end }}`,

	TemplateEvent: `{{ status .Fields.type (pad 8 (default "Normal" .Fields.type)) }} {{ bold .Fields.reason }} {{ .Fields.object }}
{{- if .Fields.count }} {{ muted (printf "x%s" .Fields.count) }}{{ end }} {{ muted (ago .Time) }}
{{- if .Body }}
{{ indent 2 .Body }}
{{- end }}`,

	TemplatePod: `{{ status .Fields.phase "●" }} {{ bold .Title }} {{ status .Fields.phase .Fields.phase }} {{ muted (printf "ready %s  restarts %s  age %s" .Fields.ready .Fields.restarts (ago .Time)) }}
{{- if .Fields.cpu }}
{{ indent 2 (printf "cpu %s  memory %s" .Fields.cpu .Fields.memory) }}
{{- end }}
{{- if .Body }}
{{ indent 2 .Body }}
{{- end }}`,
}

// TemplateFor returns the template name used for an entry kind
func TemplateFor(kind string) string {
	switch kind {
	case TemplateLog, TemplateEvent, TemplatePod:
		return kind
	default:
		return TemplateLine
	}
}
