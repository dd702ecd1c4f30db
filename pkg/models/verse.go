package models

import "fmt"

// TafseerEntry is one exegesis passage for a verse, drawn from one of the
// seven canonical tafseer books.
type TafseerEntry struct {
	VerseID       int    `json:"verse_id"`
	Slug          string `json:"slug"`
	Name          string `json:"name"`
	Methodology   string `json:"methodology,omitempty"`
	Text          string `json:"text"`
	PriorityOrder int    `json:"priority_order,omitempty"`
}

// VerseRecord is a retrieved verse with its canonical texts, an optional
// similarity score from vector search, and any attached tafseer entries.
type VerseRecord struct {
	ID          int            `json:"id,omitempty"`
	SurahNumber int            `json:"surah_number"`
	VerseNumber int            `json:"verse_number"`
	VerseKey    string         `json:"verse_key"`
	TextUthmani string         `json:"text_uthmani"`
	TextSimple  string         `json:"text_simple"`
	TextClean   string         `json:"text_clean,omitempty"`
	Similarity  float64        `json:"similarity,omitempty"`
	Tafseers    []TafseerEntry `json:"tafseers,omitempty"`
}

// Key returns the "surah:verse" identifier, computing it when the record
// was built without one.
func (v VerseRecord) Key() string {
	if v.VerseKey != "" {
		return v.VerseKey
	}
	return fmt.Sprintf("%d:%d", v.SurahNumber, v.VerseNumber)
}
