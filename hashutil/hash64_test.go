package hashutil

import "testing"

func TestHash64_EmptyStringIsFixed(t *testing.T) {
	got := HashString("")
	if got != Hash64(nil) {
		t.Fatalf("Hash64(nil) and HashString(\"\") disagree: %d vs %d", Hash64(nil), got)
	}
	if got != HashString("") {
		t.Fatalf("empty string hash not stable: %d vs %d", got, HashString(""))
	}
}

func TestHash64_Deterministic(t *testing.T) {
	inputs := []string{"", "a", "foundation", "the quick brown fox jumps over the lazy dog"}
	for _, s := range inputs {
		a := HashString(s)
		b := HashString(s)
		if a != b {
			t.Fatalf("hash of %q not stable across calls: %d vs %d", s, a, b)
		}
	}
}

func TestHash64_DistinctInputsUsuallyDistinct(t *testing.T) {
	seen := map[uint64]string{}
	for i := 0; i < 10000; i++ {
		s := string(rune('a' + i%26))
		for j := 0; j < i/26; j++ {
			s += string(rune('a' + j%26))
		}
		h := HashString(s)
		if prior, ok := seen[h]; ok && prior != s {
			t.Fatalf("collision between %q and %q", prior, s)
		}
		seen[h] = s
	}
}

func TestDigest_MD5KnownAnswer(t *testing.T) {
	d := NewDigest(DigestMD5)
	if got := d.GetDigest(); got != "d41d8cd98f00b204e9800998ecf8427e" {
		t.Fatalf("empty MD5 = %s, want d41d8cd98f00b204e9800998ecf8427e", got)
	}
}

func TestDigest_SHA256KnownAnswer(t *testing.T) {
	d := NewDigest(DigestSHA256)
	const want = "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"
	if got := d.GetDigest(); got != want {
		t.Fatalf("empty SHA-256 = %s, want %s", got, want)
	}
}

func TestDigest_IncrementalMatchesOneShot(t *testing.T) {
	msg := []byte("hello, foundation")
	d := NewDigest(DigestSHA256)
	d.DigestBytes(msg[:5])
	d.DigestBytes(msg[5:])
	want := SHA256Sum(msg)
	got := d.GetDigestRaw()
	if len(got) != len(want) {
		t.Fatal("digest length mismatch")
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("incremental digest mismatch at byte %d", i)
		}
	}
}

func TestStaticHash_DetectsCollisionOnlyForDistinctStrings(t *testing.T) {
	if collided := StaticHashStore("static-hash-key-one"); collided {
		t.Fatal("first store should never report a collision")
	}
	if collided := StaticHashStore("static-hash-key-one"); collided {
		t.Fatal("storing the same string twice is not a collision")
	}
}
