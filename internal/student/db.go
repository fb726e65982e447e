package student

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/leg100/roster/internal/hashstore"
)

const (
	// keyPrefix is prefixed to a student ID to form its store key.
	keyPrefix = "student:"

	// skillsSeparator joins skills into a single stored field.
	skillsSeparator = ","

	nameField   = "name"
	ageField    = "age"
	skillsField = "skills"
)

// db translates student operations into operations on a store of hashes.
type db struct {
	hashstore.Store
}

func key(id string) string {
	return keyPrefix + id
}

func (db *db) create(ctx context.Context, id string, opts Options) error {
	return db.Put(ctx, key(id), encodeFields(opts), hashstore.IfAbsent)
}

func (db *db) get(ctx context.Context, id string) (*Student, error) {
	fields, err := db.GetAll(ctx, key(id))
	if err != nil {
		return nil, err
	}
	return decodeFields(id, fields)
}

func (db *db) update(ctx context.Context, id string, opts Options) error {
	return db.Put(ctx, key(id), encodeFields(opts), hashstore.IfPresent)
}

func (db *db) delete(ctx context.Context, id string) error {
	return db.Delete(ctx, key(id))
}

// encodeFields converts options into hash fields. An empty list of skills is
// encoded as the absence of the skills field.
func encodeFields(opts Options) map[string]string {
	fields := map[string]string{
		nameField: opts.Name,
		ageField:  strconv.Itoa(opts.Age),
	}
	if skills := strings.Join(opts.Skills, skillsSeparator); skills != "" {
		fields[skillsField] = skills
	}
	return fields
}

// decodeFields converts hash fields into a student. Fields missing from the hash
// leave the corresponding student field at its zero value.
func decodeFields(id string, fields map[string]string) (*Student, error) {
	student := &Student{
		ID:     id,
		Name:   fields[nameField],
		Skills: []string{},
	}
	if age, ok := fields[ageField]; ok {
		var err error
		student.Age, err = strconv.Atoi(age)
		if err != nil {
			return nil, fmt.Errorf("decoding age of student %s: %w", id, err)
		}
	}
	if skills := fields[skillsField]; skills != "" {
		student.Skills = strings.Split(skills, skillsSeparator)
	}
	return student, nil
}
