package session

import "testing"

// FuzzDecodeUser feeds arbitrary slot contents to the snapshot decoder.
// It must never panic, and anything it accepts must re-encode.
func FuzzDecodeUser(f *testing.F) {
	seed, err := EncodeUser(testSession().User)
	if err == nil {
		f.Add(seed)
		f.Add(seed[:len(seed)/2])
	}

	f.Add("")
	f.Add("null")
	f.Add("{}")
	f.Add("[]")
	f.Add(`{"permissions":null}`)
	f.Add(`{"permissions":[1,2]}`)
	f.Add(`{"unit":{"id":"x"}}`)
	f.Add(`{"userId":1,"unitId":2}`)

	f.Fuzz(func(t *testing.T, data string) {
		u, err := DecodeUser(data)
		if err != nil {
			return
		}
		if u == nil {
			t.Fatal("nil user without error")
		}
		if _, err := EncodeUser(u); err != nil {
			t.Fatalf("re-encode accepted snapshot: %v", err)
		}
	})
}
