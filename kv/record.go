// ABOUTME: On-disk CBOR schema for people and import state in the Badger store
// ABOUTME: Integer map keys keep records compact and stable across field renames
package kv

import (
	"fmt"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/google/uuid"

	"github.com/harperreed/contactshq/models"
)

const recordVersion = 1

type valueRecord struct {
	Label *string `cbor:"1,keyasint"`
	Value string  `cbor:"2,keyasint"`
}

type personRecord struct {
	Version      uint8                    `cbor:"0,keyasint"`
	ID           []byte                   `cbor:"1,keyasint"`
	GivenName    string                   `cbor:"2,keyasint"`
	FamilyName   *string                  `cbor:"3,keyasint"`
	Company      *string                  `cbor:"4,keyasint"`
	Note         *string                  `cbor:"5,keyasint"`
	ImageData    []byte                   `cbor:"6,keyasint,omitempty"`
	Type         string                   `cbor:"7,keyasint"`
	Language     string                   `cbor:"8,keyasint,omitempty"`
	Availability []string                 `cbor:"9,keyasint,omitempty"`
	Birthday     string                   `cbor:"10,keyasint,omitempty"`
	Groups       []string                 `cbor:"11,keyasint,omitempty"`
	ExternalID   string                   `cbor:"12,keyasint,omitempty"`
	Values       map[string][]valueRecord `cbor:"13,keyasint,omitempty"`
	Seq          uint64                   `cbor:"14,keyasint"`
	CreatedAt    int64                    `cbor:"15,keyasint"`
	UpdatedAt    int64                    `cbor:"16,keyasint"`
}

type syncRecord struct {
	Status       string  `cbor:"1,keyasint"`
	LastSyncTime int64   `cbor:"2,keyasint,omitempty"`
	ErrorMessage *string `cbor:"3,keyasint"`
	UpdatedAt    int64   `cbor:"4,keyasint"`
}

const birthdayLayout = "2006-01-02"

var encMode = func() cbor.EncMode {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(err)
	}
	return em
}()

func encodePerson(p *models.Person, seq uint64) ([]byte, error) {
	id := p.ID()
	rec := personRecord{
		Version:    recordVersion,
		ID:         id[:],
		GivenName:  p.GivenName,
		FamilyName: p.FamilyName,
		Company:    p.Company,
		Note:       p.Note,
		ImageData:  p.ImageData,
		Type:       string(p.Type),
		Groups:     p.Groups,
		ExternalID: p.ExternalID,
		Seq:        seq,
		CreatedAt:  p.CreatedAt.UnixNano(),
		UpdatedAt:  p.UpdatedAt.UnixNano(),
	}
	if p.PreferredLanguage != nil {
		rec.Language = string(*p.PreferredLanguage)
	}
	for _, a := range models.UniqueAvailability(p.Availability) {
		rec.Availability = append(rec.Availability, string(a))
	}
	if p.Birthday != nil {
		rec.Birthday = p.Birthday.Format(birthdayLayout)
	}
	for _, cat := range models.Categories {
		values := p.Values(cat)
		if len(values) == 0 {
			continue
		}
		if rec.Values == nil {
			rec.Values = make(map[string][]valueRecord)
		}
		out := make([]valueRecord, len(values))
		for i, lv := range values {
			out[i] = valueRecord{Label: lv.Label, Value: lv.Value}
		}
		rec.Values[string(cat)] = out
	}
	return encMode.Marshal(rec)
}

func decodeRecord(data []byte) (*personRecord, error) {
	var rec personRecord
	if err := cbor.Unmarshal(data, &rec); err != nil {
		return nil, err
	}
	if rec.Version != recordVersion {
		return nil, fmt.Errorf("unsupported record version %d", rec.Version)
	}
	return &rec, nil
}

func (rec *personRecord) person() (*models.Person, error) {
	id, err := uuid.FromBytes(rec.ID)
	if err != nil {
		return nil, fmt.Errorf("invalid person id: %w", err)
	}

	p := models.RestorePerson(id)
	p.GivenName = rec.GivenName
	p.FamilyName = rec.FamilyName
	p.Company = rec.Company
	p.Note = rec.Note
	p.ImageData = rec.ImageData
	p.Type = models.PersonType(rec.Type)
	if rec.Language != "" {
		lang := models.Language(rec.Language)
		p.PreferredLanguage = &lang
	}
	for _, a := range rec.Availability {
		p.Availability = append(p.Availability, models.Availability(a))
	}
	if rec.Birthday != "" {
		b, err := time.Parse(birthdayLayout, rec.Birthday)
		if err != nil {
			return nil, fmt.Errorf("invalid birthday %q: %w", rec.Birthday, err)
		}
		p.Birthday = &b
	}
	p.Groups = rec.Groups
	p.ExternalID = rec.ExternalID
	for cat, values := range rec.Values {
		out := make([]models.LabeledValue, len(values))
		for i, v := range values {
			out[i] = models.LabeledValue{Label: v.Label, Value: v.Value}
		}
		p.SetValues(models.Category(cat), out)
	}
	p.CreatedAt = fromUnixNano(rec.CreatedAt)
	p.UpdatedAt = fromUnixNano(rec.UpdatedAt)
	return p, nil
}

func nowUTC() time.Time {
	return time.Now().UTC()
}

func fromUnixNano(n int64) time.Time {
	return time.Unix(0, n).UTC()
}
