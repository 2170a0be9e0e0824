// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package invenio

// Metadata is the descriptive part of an InvenioRDM record. Field order is
// the serialization order; optional sections are omitted when empty.
type Metadata struct {
	ResourceType           Vocabulary              `json:"resource_type"`
	Title                  string                  `json:"title"`
	Creators               []Creator               `json:"creators"`
	PublicationDate        string                  `json:"publication_date"`
	Languages              []Vocabulary            `json:"languages,omitempty"`
	Description            string                  `json:"description,omitempty"`
	Subjects               []Subject               `json:"subjects,omitempty"`
	Identifiers            []Identifier            `json:"identifiers,omitempty"`
	Contributors           []Contributor           `json:"contributors,omitempty"`
	Formats                []string                `json:"formats,omitempty"`
	Publisher              string                  `json:"publisher,omitempty"`
	Rights                 []Right                 `json:"rights,omitempty"`
	AdditionalDescriptions []AdditionalDescription `json:"additional_descriptions,omitempty"`
	RelatedIdentifiers     []RelatedIdentifier     `json:"related_identifiers,omitempty"`
}

// Vocabulary references a controlled vocabulary entry by id.
type Vocabulary struct {
	ID string `json:"id"`
}

// PersonOrOrg names a creator or contributor.
type PersonOrOrg struct {
	Type       string `json:"type"`
	Name       string `json:"name"`
	GivenName  string `json:"given_name,omitempty"`
	FamilyName string `json:"family_name,omitempty"`
}

// Creator is a record author.
type Creator struct {
	PersonOrOrg PersonOrOrg `json:"person_or_org"`
}

// Contributor is a non-author participant with a role.
type Contributor struct {
	PersonOrOrg PersonOrOrg `json:"person_or_org"`
	Role        Vocabulary  `json:"role"`
}

// Subject is a free-text keyword.
type Subject struct {
	Subject string `json:"subject"`
}

// Identifier is an alternate identifier of the record.
type Identifier struct {
	Identifier string `json:"identifier"`
	Scheme     string `json:"scheme"`
}

// Right is a licence statement keyed by language.
type Right struct {
	Title       map[string]string `json:"title"`
	Description map[string]string `json:"description,omitempty"`
}

// AdditionalDescription is a typed free-text description.
type AdditionalDescription struct {
	Description string     `json:"description"`
	Type        Vocabulary `json:"type"`
}

// RelatedIdentifier links the record to an external resource.
type RelatedIdentifier struct {
	Identifier   string      `json:"identifier"`
	Scheme       string      `json:"scheme"`
	RelationType Vocabulary  `json:"relation_type"`
	ResourceType *Vocabulary `json:"resource_type,omitempty"`
}

// Access controls record and file visibility.
type Access struct {
	Record string `json:"record"`
	Files  string `json:"files"`
}

// FilesOptions toggles file attachments on a draft.
type FilesOptions struct {
	Enabled bool `json:"enabled"`
}

// DraftRequest is the body of a create-draft call.
type DraftRequest struct {
	Access   Access       `json:"access"`
	Files    FilesOptions `json:"files"`
	Metadata Metadata     `json:"metadata"`
}

// Record is the subset of a record or draft response this program reads.
type Record struct {
	ID       string            `json:"id"`
	Metadata RecordMetadata    `json:"metadata"`
	Links    map[string]string `json:"links,omitempty"`
}

// RecordMetadata holds the fields read back from listed records.
type RecordMetadata struct {
	Title                  string                  `json:"title"`
	Publisher              string                  `json:"publisher"`
	AdditionalDescriptions []AdditionalDescription `json:"additional_descriptions"`
}

// searchResult is a record listing page.
type searchResult struct {
	Hits struct {
		Hits  []Record `json:"hits"`
		Total int      `json:"total"`
	} `json:"hits"`
}
