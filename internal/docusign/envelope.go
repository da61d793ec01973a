package docusign

import (
	"sort"
	"strconv"

	"github.com/toshahriar/documenter/internal/model"
)

// Wire types for the provider's envelope API. Numeric fields are strings
// because that is how the API serializes them.

type envelopeDefinition struct {
	EmailSubject string     `json:"emailSubject"`
	Documents    []document `json:"documents"`
	Recipients   recipients `json:"recipients"`
	Status       string     `json:"status"`
}

type document struct {
	DocumentBase64 string `json:"documentBase64"`
	DocumentID     string `json:"documentId"`
	FileExtension  string `json:"fileExtension"`
	Name           string `json:"name"`
}

type recipients struct {
	Signers []signer `json:"signers"`
}

type signer struct {
	Email        string `json:"email"`
	Name         string `json:"name"`
	RecipientID  string `json:"recipientId"`
	RoutingOrder string `json:"routingOrder"`
	Tabs         tabs   `json:"tabs"`
}

type tabs struct {
	SignHereTabs []signHere `json:"signHereTabs"`
}

type signHere struct {
	DocumentID string `json:"documentId"`
	PageNumber string `json:"pageNumber"`
	XPosition  string `json:"xPosition"`
	YPosition  string `json:"yPosition"`
	TabLabel   string `json:"tabLabel"`
}

// signHereYStep offsets each signer's signature tab vertically so stacked
// placements never overlap.
const (
	signHereBaseX = 50
	signHereBaseY = 50
	signHereYStep = 50
)

// buildEnvelope maps a document aggregate onto an envelope definition: one
// base64 document part, one signer per recipient in routing order, one
// SignHere tab each.
func buildEnvelope(doc *model.Document, docBase64 string) envelopeDefinition {
	ordered := make([]model.DocumentSigner, len(doc.Signers))
	copy(ordered, doc.Signers)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Order < ordered[j].Order })

	signers := make([]signer, 0, len(ordered))
	for i, s := range ordered {
		signers = append(signers, signer{
			Email:        s.Email,
			Name:         s.Name,
			RecipientID:  s.ID,
			RoutingOrder: strconv.Itoa(s.Order),
			Tabs: tabs{SignHereTabs: []signHere{{
				DocumentID: "1",
				PageNumber: "1",
				XPosition:  strconv.Itoa(signHereBaseX),
				YPosition:  strconv.Itoa(signHereBaseY + i*signHereYStep),
				TabLabel:   "SignHere" + strconv.Itoa(i+1),
			}}},
		})
	}

	ext := "pdf"
	if doc.Metadata.Attachment != nil && doc.Metadata.Attachment.FileExt != "" {
		ext = doc.Metadata.Attachment.FileExt
	}

	return envelopeDefinition{
		EmailSubject: "Please sign the document: " + doc.Title,
		Documents: []document{{
			DocumentBase64: docBase64,
			DocumentID:     "1",
			FileExtension:  ext,
			Name:           doc.Title,
		}},
		Recipients: recipients{Signers: signers},
		Status:     "sent",
	}
}
