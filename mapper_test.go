package sealedfield

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncryptFields(t *testing.T) {
	m := NewMapper(testCodec(t))

	in := Record{"id": "u1", "email": "alice@x.com", "firstName": "Alice", "role": "admin"}
	out := m.EncryptFields(EntityUser, in)

	require.True(t, IsCiphertext(out["email"].(string)))
	require.True(t, IsCiphertext(out["firstName"].(string)))
	require.NotContains(t, out, "lastName")
	require.Equal(t, "admin", out["role"])
	require.Equal(t, "u1", out["id"])

	// input is not modified
	require.Equal(t, "alice@x.com", in["email"])

	back := m.DecryptFields(EntityUser, out)
	require.Equal(t, in, back)
}

func TestEncryptFields_NullAndNonString(t *testing.T) {
	m := NewMapper(testCodec(t))

	out := m.EncryptFields(EntityProject, Record{"name": "Apollo", "description": nil, "budget": 10})
	require.True(t, IsCiphertext(out["name"].(string)))
	require.NotContains(t, out, "description")
	require.Equal(t, 10, out["budget"])

	out = m.EncryptFields(EntityTask, Record{"title": 42})
	require.NotContains(t, out, "title")

	out = m.EncryptFields(EntityGoal, Record{"title": ""})
	require.Equal(t, "", out["title"])
}

func TestEncryptFields_NilAndUnknownEntity(t *testing.T) {
	m := NewMapper(testCodec(t))

	require.Nil(t, m.EncryptFields(EntityUser, nil))
	require.Nil(t, m.DecryptFields(EntityUser, nil))

	in := Record{"email": "x@y.z"}
	require.Equal(t, in, m.EncryptFields("invoice", in))
	require.Equal(t, in, m.DecryptFields("invoice", in))
}

// A partial update with an explicit null keeps the stored ciphertext and
// re-encrypts only what is present.
func TestEncryptFields_PartialUpdatePreservesCiphertext(t *testing.T) {
	m := NewMapper(testCodec(t))

	stored := m.EncryptFields(EntityProject, Record{"id": "p1", "name": "Apollo", "description": "Moon"})
	descCT := stored["description"]

	patch := m.EncryptFields(EntityProject, Record{"name": "Artemis", "description": nil})
	merged := stored.Merge(patch)

	require.Equal(t, descCT, merged["description"])
	require.NotEqual(t, stored["name"], merged["name"])

	got := m.DecryptFields(EntityProject, merged)
	require.Equal(t, "Artemis", got["name"])
	require.Equal(t, "Moon", got["description"])
}

func TestDecryptFields_Passthrough(t *testing.T) {
	codec := testCodec(t)
	m := NewMapper(codec)

	broken := sealRaw(codec, make([]byte, 16))
	rec := Record{
		"id":        "u1",
		"email":     "legacy@x.com",
		"firstName": broken,
		"lastName":  nil,
		"age":       30,
	}

	got := m.DecryptFields(EntityUser, rec)
	assert.Equal(t, "legacy@x.com", got["email"])
	assert.Equal(t, broken, got["firstName"])
	assert.Nil(t, got["lastName"])
	assert.Contains(t, got, "lastName")
	assert.Equal(t, 30, got["age"])
}

func TestDecryptMany(t *testing.T) {
	m := NewMapper(testCodec(t))

	require.Nil(t, m.DecryptMany(EntityTask, nil))

	rows := []Record{
		m.EncryptFields(EntityTask, Record{"id": "t1", "title": "first"}),
		m.EncryptFields(EntityTask, Record{"id": "t2", "title": "second"}),
		m.EncryptFields(EntityTask, Record{"id": "t3", "title": "third"}),
	}

	got := m.DecryptMany(EntityTask, rows)
	require.Len(t, got, 3)
	for i, want := range []string{"first", "second", "third"} {
		require.Equal(t, want, got[i]["title"])
	}
}

func TestDecryptEmbedded(t *testing.T) {
	m := NewMapper(testCodec(t))

	owner := m.EncryptFields(EntityUser, Record{"id": "u1", "email": "owner@x.com", "firstName": "Olive"})
	task := m.EncryptFields(EntityTask, Record{"id": "t1", "title": "Write report"})

	t.Run("single record", func(t *testing.T) {
		goal := m.EncryptFields(EntityGoal, Record{"id": "g1", "title": "Ship"})
		goal["owner"] = owner

		got := m.DecryptEmbedded(m.DecryptFields(EntityGoal, goal), "owner", EntityUser)
		require.Equal(t, "Ship", got["title"])
		require.Equal(t, "owner@x.com", got["owner"].(Record)["email"])

		// the parent argument is not modified
		require.True(t, IsCiphertext(goal["owner"].(Record)["email"].(string)))
	})

	t.Run("plain map", func(t *testing.T) {
		parent := Record{"owner": map[string]any(owner)}
		got := m.DecryptEmbedded(parent, "owner", EntityUser)
		require.Equal(t, "Olive", got["owner"].(Record)["firstName"])
	})

	t.Run("record slice", func(t *testing.T) {
		parent := Record{"tasks": []Record{task}}
		got := m.DecryptEmbedded(parent, "tasks", EntityTask)
		require.Equal(t, "Write report", got["tasks"].([]Record)[0]["title"])
	})

	t.Run("map slice", func(t *testing.T) {
		parent := Record{"tasks": []map[string]any{task}}
		got := m.DecryptEmbedded(parent, "tasks", EntityTask)
		require.Equal(t, "Write report", got["tasks"].([]Record)[0]["title"])
	})

	t.Run("decoded json slice", func(t *testing.T) {
		parent := Record{"tasks": []any{map[string]any(task), "stray"}}
		got := m.DecryptEmbedded(parent, "tasks", EntityTask)

		items := got["tasks"].([]any)
		require.Equal(t, "Write report", items[0].(Record)["title"])
		require.Equal(t, "stray", items[1])
	})

	t.Run("missing or scalar key", func(t *testing.T) {
		parent := Record{"owner": "u1"}
		require.Equal(t, parent, m.DecryptEmbedded(parent, "owner", EntityUser))
		require.Equal(t, parent, m.DecryptEmbedded(parent, "tasks", EntityTask))
		require.Nil(t, m.DecryptEmbedded(nil, "owner", EntityUser))
	})
}

func TestBlindIndexColumns(t *testing.T) {
	codec := testCodec(t)
	m := NewMapper(codec, WithBlindIndex())

	out := m.EncryptFields(EntityUser, Record{"email": " Alice@X.com", "firstName": "Alice"})
	require.Equal(t, codec.BlindIndex(EntityUser, "email", "alice@x.com", NormalizeEmail), out["email_idx"])
	require.NotContains(t, out, "firstName_idx")

	cleared := m.EncryptFields(EntityUser, Record{"email": ""})
	require.Contains(t, cleared, "email_idx")
	require.Nil(t, cleared["email_idx"])

	untouched := m.EncryptFields(EntityUser, Record{"firstName": "Bob"})
	require.NotContains(t, untouched, "email_idx")

	got := m.DecryptFields(EntityUser, out)
	require.NotContains(t, got, "email_idx")
	require.Equal(t, " Alice@X.com", got["email"])

	require.NotContains(t, NewMapper(codec).EncryptFields(EntityUser, Record{"email": "a@x.com"}), "email_idx")
}
