package reports

import (
	deepcopy "github.com/tiendc/go-deepcopy"
)

func cloneConfig(cfg map[string]any) map[string]any {
	if cfg == nil {
		return nil
	}
	var out map[string]any
	if err := deepcopy.Copy(&out, cfg); err != nil || out == nil {
		out = make(map[string]any, len(cfg))
		for k, v := range cfg {
			out[k] = v
		}
	}
	return out
}

func cloneElement(el Element) Element {
	cloned := el
	cloned.Config = cloneConfig(el.Config)
	return cloned
}

func cloneElements(elements []Element) []Element {
	if elements == nil {
		return nil
	}
	out := make([]Element, len(elements))
	for i, el := range elements {
		out[i] = cloneElement(el)
	}
	return out
}

func cloneSchedule(s *Schedule) *Schedule {
	if s == nil {
		return nil
	}
	cloned := *s
	if s.Recipients != nil {
		cloned.Recipients = append([]string(nil), s.Recipients...)
	}
	return &cloned
}

// cloneTemplate returns a deep copy; element configs and schedule recipients are not shared.
func cloneTemplate(tpl Template) Template {
	cloned := tpl
	cloned.Elements = cloneElements(tpl.Elements)
	cloned.Schedule = cloneSchedule(tpl.Schedule)
	return cloned
}

// Clone returns a deep copy of the template.
func (t Template) Clone() Template {
	return cloneTemplate(t)
}
