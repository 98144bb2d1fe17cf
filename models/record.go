package models

// RawItemRecord is the data extracted from one item page. It is the shape
// written to progress checkpoints.
type RawItemRecord struct {
	BaseTypeEn string  `json:"base_type_en"`
	BaseTypeZh *string `json:"base_type_zh"`
	Type       *string `json:"type"`
	URL        string  `json:"url"`
}

// FormattedRecord is the final output shape. The name fields duplicate the
// base type fields for downstream consumers.
type FormattedRecord struct {
	NameZh     *string `json:"name_zh"`
	NameEn     string  `json:"name_en"`
	BaseTypeZh *string `json:"base_type_zh"`
	BaseTypeEn string  `json:"base_type_en"`
	Type       *string `json:"type"`
	URL        string  `json:"url"`
}

// Format projects the record into its output shape.
func (r RawItemRecord) Format() FormattedRecord {
	return FormattedRecord{
		NameZh:     r.BaseTypeZh,
		NameEn:     r.BaseTypeEn,
		BaseTypeZh: r.BaseTypeZh,
		BaseTypeEn: r.BaseTypeEn,
		Type:       r.Type,
		URL:        r.URL,
	}
}

// FormatAll projects every record, preserving order.
func FormatAll(records []RawItemRecord) []FormattedRecord {
	out := make([]FormattedRecord, 0, len(records))
	for _, r := range records {
		out = append(out, r.Format())
	}
	return out
}

// StringOrEmpty dereferences an optional field for display.
func StringOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
