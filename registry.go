package sealedfield

// Entity names a persisted entity type.
type Entity string

const (
	EntityUser    Entity = "user"
	EntityProject Entity = "project"
	EntityGoal    Entity = "goal"
	EntityTask    Entity = "task"
)

// Entities lists the built-in entity types.
func Entities() []Entity {
	return []Entity{EntityUser, EntityProject, EntityGoal, EntityTask}
}

// Field describes a confidential field. Fields with a non-nil Index normalizer
// are unique lookup keys and may carry a blind index. Index hits are always
// re-checked against the exact plaintext, so a normalizer only widens the
// candidate set.
type Field struct {
	Name  string
	Index Normalizer
}

// Indexed reports whether the field can carry a blind index.
func (f Field) Indexed() bool {
	return f.Index != nil
}

// Registry maps each entity to its confidential fields.
type Registry map[Entity][]Field

// DefaultRegistry returns the fixed registry for users, projects, goals and tasks.
func DefaultRegistry() Registry {
	return Registry{
		EntityUser: {
			{Name: "email", Index: NormalizeEmail},
			{Name: "firstName"},
			{Name: "lastName"},
		},
		EntityProject: {{Name: "name"}, {Name: "description"}},
		EntityGoal:    {{Name: "title"}, {Name: "description"}},
		EntityTask:    {{Name: "title"}, {Name: "description"}},
	}
}

// Fields returns the confidential fields of entity, or nil for an unknown entity.
func (r Registry) Fields(entity Entity) []Field {
	return r[entity]
}

// Lookup returns the named confidential field of entity.
func (r Registry) Lookup(entity Entity, name string) (Field, bool) {
	for _, f := range r[entity] {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}
