package sealedfield_test

import (
	"context"
	"fmt"

	"github.com/ai8future/sealedfield"
	"github.com/ai8future/sealedfield/store/memstore"
)

func Example() {
	// In production the secret comes from configuration, never from code.
	codec, err := sealedfield.New(sealedfield.MustDeriveKey("example-secret"))
	if err != nil {
		panic(err)
	}

	ciphertext := codec.Encrypt("Hello, World!")
	fmt.Println(sealedfield.IsCiphertext(ciphertext))
	fmt.Println(codec.Decrypt(ciphertext))

	// Legacy plaintext reads back unchanged
	fmt.Println(codec.Decrypt("not encrypted"))

	// Output:
	// true
	// Hello, World!
	// not encrypted
}

func ExampleParse() {
	for _, s := range []string{
		"a:not-hex",
		"000102030405060708090a0b0c0d0e0f:00112233445566778899aabbccddeeff",
	} {
		switch v := sealedfield.Parse(s).(type) {
		case sealedfield.Plaintext:
			fmt.Println("plaintext:", v)
		case sealedfield.Ciphertext:
			fmt.Println("ciphertext bytes:", len(v.Data))
		}
	}

	// Output:
	// plaintext: a:not-hex
	// ciphertext bytes: 16
}

func ExampleMapper_EncryptFields() {
	codec, _ := sealedfield.New(sealedfield.MustDeriveKey("example-secret"))
	mapper := sealedfield.NewMapper(codec)

	stored := mapper.EncryptFields(sealedfield.EntityProject, sealedfield.Record{
		"name":        "Apollo",
		"description": nil,
		"status":      "active",
	})

	_, hasDescription := stored["description"]
	fmt.Println("description written:", hasDescription)
	fmt.Println("status:", stored["status"])
	fmt.Println("name:", mapper.DecryptFields(sealedfield.EntityProject, stored)["name"])

	// Output:
	// description written: false
	// status: active
	// name: Apollo
}

func ExampleRepository_FindBy() {
	codec, _ := sealedfield.New(sealedfield.MustDeriveKey("example-secret"))
	repo, _ := sealedfield.NewRepository(memstore.New(), sealedfield.NewMapper(codec))
	ctx := context.Background()

	_, _ = repo.Create(ctx, sealedfield.EntityUser, sealedfield.Record{"id": "u1", "email": "alice@x.com", "firstName": "Alice"})
	_, _ = repo.Create(ctx, sealedfield.EntityUser, sealedfield.Record{"id": "u2", "email": "bob@x.com", "firstName": "Bob"})

	user, err := repo.FindBy(ctx, sealedfield.EntityUser, "email", "bob@x.com")
	fmt.Println(user.ID(), user["firstName"], err)

	_, err = repo.FindBy(ctx, sealedfield.EntityUser, "email", "carol@x.com")
	fmt.Println(err)

	// Output:
	// u2 Bob <nil>
	// sealedfield: not found
}
