// ABOUTME: SQLite implementation of the gateway's person repository
// ABOUTME: People live in one row each; labeled values are ordered child rows
package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/harperreed/contactshq/gateway"
	"github.com/harperreed/contactshq/models"
)

const birthdayLayout = "2006-01-02"

// PeopleRepository stores people in SQLite. Every method commits before returning.
type PeopleRepository struct {
	db *sql.DB
}

func NewPeopleRepository(db *sql.DB) *PeopleRepository {
	return &PeopleRepository{db: db}
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (r *PeopleRepository) Insert(ctx context.Context, p *models.Person) error {
	return r.InsertBatch(ctx, []*models.Person{p})
}

// InsertBatch writes every person in one transaction.
func (r *PeopleRepository) InsertBatch(ctx context.Context, people []*models.Person) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UTC()
	for _, p := range people {
		p.CreatedAt = now
		p.UpdatedAt = now
		if err := insertPerson(ctx, tx, p); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit people: %w", err)
	}
	return nil
}

func insertPerson(ctx context.Context, tx execer, p *models.Person) error {
	availability, groups, err := encodeSets(p)
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO people (id, given_name, family_name, company, note, image_data, person_type,
			preferred_language, availability, birthday, group_tags, external_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, p.ID().String(), p.GivenName, p.FamilyName, p.Company, p.Note, p.ImageData, string(p.Type),
		languageArg(p.PreferredLanguage), availability, birthdayArg(p.Birthday), groups, p.ExternalID,
		p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert person %s: %w", p.ID(), err)
	}

	return insertValues(ctx, tx, p)
}

func insertValues(ctx context.Context, tx execer, p *models.Person) error {
	for _, cat := range models.Categories {
		for pos, lv := range p.Values(cat) {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO labeled_values (person_id, category, position, label, value)
				VALUES (?, ?, ?, ?, ?)
			`, p.ID().String(), string(cat), pos, lv.Label, lv.Value)
			if err != nil {
				return fmt.Errorf("failed to insert %s value: %w", cat, err)
			}
		}
	}
	return nil
}

// Update replaces a stored person, including every labeled sequence.
func (r *PeopleRepository) Update(ctx context.Context, p *models.Person) error {
	availability, groups, err := encodeSets(p)
	if err != nil {
		return err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	p.UpdatedAt = time.Now().UTC()
	res, err := tx.ExecContext(ctx, `
		UPDATE people
		SET given_name = ?, family_name = ?, company = ?, note = ?, image_data = ?, person_type = ?,
			preferred_language = ?, availability = ?, birthday = ?, group_tags = ?, external_id = ?,
			updated_at = ?
		WHERE id = ?
	`, p.GivenName, p.FamilyName, p.Company, p.Note, p.ImageData, string(p.Type),
		languageArg(p.PreferredLanguage), availability, birthdayArg(p.Birthday), groups, p.ExternalID,
		p.UpdatedAt, p.ID().String())
	if err != nil {
		return fmt.Errorf("failed to update person %s: %w", p.ID(), err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return gateway.ErrNotFound
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM labeled_values WHERE person_id = ?`, p.ID().String()); err != nil {
		return fmt.Errorf("failed to clear labeled values: %w", err)
	}
	if err := insertValues(ctx, tx, p); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit person %s: %w", p.ID(), err)
	}
	return nil
}

func (r *PeopleRepository) Get(ctx context.Context, id uuid.UUID) (*models.Person, error) {
	row := r.db.QueryRowContext(ctx, selectPeople+` WHERE id = ?`, id.String())
	p, err := scanPerson(row)
	if err == sql.ErrNoRows {
		return nil, gateway.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	values, err := r.loadValues(ctx, `WHERE person_id = ?`, id.String())
	if err != nil {
		return nil, err
	}
	applyValues(p, values[id.String()])
	return p, nil
}

// List returns every person in insertion order.
func (r *PeopleRepository) List(ctx context.Context) ([]*models.Person, error) {
	rows, err := r.db.QueryContext(ctx, selectPeople+` ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("failed to query people: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var people []*models.Person
	for rows.Next() {
		p, err := scanPerson(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan person: %w", err)
		}
		people = append(people, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating people: %w", err)
	}

	values, err := r.loadValues(ctx, "")
	if err != nil {
		return nil, err
	}
	for _, p := range people {
		applyValues(p, values[p.ID().String()])
	}
	return people, nil
}

func (r *PeopleRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM labeled_values WHERE person_id = ?`, id.String()); err != nil {
		return fmt.Errorf("failed to delete labeled values: %w", err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM people WHERE id = ?`, id.String())
	if err != nil {
		return fmt.Errorf("failed to delete person %s: %w", id, err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return gateway.ErrNotFound
	}
	return tx.Commit()
}

// Flush checkpoints the write-ahead log into the main database file.
func (r *PeopleRepository) Flush(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `PRAGMA wal_checkpoint(TRUNCATE)`); err != nil {
		return fmt.Errorf("failed to checkpoint: %w", err)
	}
	return nil
}

const selectPeople = `
	SELECT id, given_name, family_name, company, note, image_data, person_type, preferred_language,
		availability, birthday, group_tags, external_id, created_at, updated_at
	FROM people`

type scanner interface {
	Scan(dest ...any) error
}

func scanPerson(s scanner) (*models.Person, error) {
	var (
		id                          string
		givenName                   string
		familyName, company, note   sql.NullString
		imageData                   []byte
		personType                  string
		language, birthday          sql.NullString
		availabilityJSON, groupJSON string
		externalID                  string
		createdAt, updatedAt        time.Time
	)
	if err := s.Scan(&id, &givenName, &familyName, &company, &note, &imageData, &personType, &language,
		&availabilityJSON, &birthday, &groupJSON, &externalID, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	pid, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid person id %q: %w", id, err)
	}

	p := models.RestorePerson(pid)
	p.GivenName = givenName
	p.FamilyName = nullString(familyName)
	p.Company = nullString(company)
	p.Note = nullString(note)
	if len(imageData) > 0 {
		p.ImageData = imageData
	}
	p.Type = models.PersonType(personType)
	if language.Valid {
		lang := models.Language(language.String)
		p.PreferredLanguage = &lang
	}
	if birthday.Valid {
		b, err := time.Parse(birthdayLayout, birthday.String)
		if err != nil {
			return nil, fmt.Errorf("invalid birthday %q: %w", birthday.String, err)
		}
		p.Birthday = &b
	}
	if err := json.Unmarshal([]byte(availabilityJSON), &p.Availability); err != nil {
		return nil, fmt.Errorf("invalid availability: %w", err)
	}
	if err := json.Unmarshal([]byte(groupJSON), &p.Groups); err != nil {
		return nil, fmt.Errorf("invalid groups: %w", err)
	}
	p.ExternalID = externalID
	p.CreatedAt = createdAt
	p.UpdatedAt = updatedAt
	return p, nil
}

type storedValue struct {
	category models.Category
	value    models.LabeledValue
}

func (r *PeopleRepository) loadValues(ctx context.Context, where string, args ...any) (map[string][]storedValue, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT person_id, category, label, value FROM labeled_values `+where+`
		ORDER BY person_id, category, position`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query labeled values: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := make(map[string][]storedValue)
	for rows.Next() {
		var personID, category string
		var label sql.NullString
		var value string
		if err := rows.Scan(&personID, &category, &label, &value); err != nil {
			return nil, fmt.Errorf("failed to scan labeled value: %w", err)
		}
		out[personID] = append(out[personID], storedValue{
			category: models.Category(category),
			value:    models.LabeledValue{Label: nullString(label), Value: value},
		})
	}
	return out, rows.Err()
}

func applyValues(p *models.Person, values []storedValue) {
	for _, sv := range values {
		p.SetValues(sv.category, append(p.Values(sv.category), sv.value))
	}
}

func encodeSets(p *models.Person) (string, string, error) {
	availability := p.Availability
	if availability == nil {
		availability = []models.Availability{}
	}
	a, err := json.Marshal(models.UniqueAvailability(availability))
	if err != nil {
		return "", "", err
	}
	groups := p.Groups
	if groups == nil {
		groups = []string{}
	}
	g, err := json.Marshal(groups)
	if err != nil {
		return "", "", err
	}
	return string(a), string(g), nil
}

func nullString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

func languageArg(l *models.Language) any {
	if l == nil {
		return nil
	}
	return string(*l)
}

func birthdayArg(b *time.Time) any {
	if b == nil {
		return nil
	}
	return b.Format(birthdayLayout)
}
