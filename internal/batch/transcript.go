package batch

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Output is the distilled transcript of a batch job.
type Output struct {
	Text       string
	Confidence float64
}

// outputDocument mirrors the job result JSON. Word confidences are
// carried as decimal strings in the document.
type outputDocument struct {
	Results struct {
		Transcripts []struct {
			Transcript string `json:"transcript"`
		} `json:"transcripts"`
		Items []struct {
			Type         string `json:"type"`
			Alternatives []struct {
				Confidence string `json:"confidence"`
				Content    string `json:"content"`
			} `json:"alternatives"`
		} `json:"items"`
	} `json:"results"`
}

// ParseOutput extracts the transcript text and the mean word
// confidence from a job result document. Punctuation items carry no
// confidence and are skipped.
func ParseOutput(data []byte) (*Output, error) {
	var doc outputDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse transcript document: %w", err)
	}
	if len(doc.Results.Transcripts) == 0 {
		return nil, fmt.Errorf("transcript document has no transcripts")
	}

	out := &Output{Text: doc.Results.Transcripts[0].Transcript}

	var sum float64
	var n int
	for _, item := range doc.Results.Items {
		if item.Type != "pronunciation" || len(item.Alternatives) == 0 {
			continue
		}
		conf, err := strconv.ParseFloat(item.Alternatives[0].Confidence, 64)
		if err != nil {
			continue
		}
		sum += conf
		n++
	}
	if n > 0 {
		out.Confidence = sum / float64(n)
	}
	return out, nil
}
