package logger

import (
	"strings"
	"testing"
)

func TestRedactorMasksSensitiveKeys(t *testing.T) {
	r := &redactor{enabled: true}
	out := r.apply([]interface{}{"access_token", "abc", "email", "a@b.c", "project_id", 7})
	if out[1] != redacted {
		t.Fatalf("access_token: want=%s got=%v", redacted, out[1])
	}
	if out[3] != redacted {
		t.Fatalf("email: want=%s got=%v", redacted, out[3])
	}
	if out[5] != 7 {
		t.Fatalf("project_id: want=7 got=%v", out[5])
	}
}

func TestRedactorHashesUserID(t *testing.T) {
	r := &redactor{enabled: true, salt: "s"}
	out := r.apply([]interface{}{"user_id", int64(42)})
	got, ok := out[1].(string)
	if !ok || !strings.HasPrefix(got, "hash:") || len(got) != len("hash:")+12 {
		t.Fatalf("user_id hash: got=%v", out[1])
	}
	again := r.apply([]interface{}{"user_id", int64(42)})
	if again[1] != got {
		t.Fatalf("hash must be stable: %v vs %v", again[1], got)
	}
}

func TestRedactorNestedAndJWT(t *testing.T) {
	r := &redactor{enabled: true}
	jwtLike := "eyJhbGciOiJIUzI1NiJ9.eyJzdWIiOiIxMjM0NTY3ODkwIn0.sig"
	out := r.apply([]interface{}{"payload", map[string]interface{}{"password": "x", "name": "ok"}, "raw", jwtLike})
	nested := out[1].(map[string]interface{})
	if nested["password"] != redacted || nested["name"] != "ok" {
		t.Fatalf("nested: %+v", nested)
	}
	if out[3] != redacted {
		t.Fatalf("jwt value should be redacted, got=%v", out[3])
	}
}

func TestRedactorDisabledPassthrough(t *testing.T) {
	r := &redactor{enabled: false}
	in := []interface{}{"password", "p"}
	out := r.apply(in)
	if out[1] != "p" {
		t.Fatalf("disabled redactor should pass through, got=%v", out[1])
	}
}

func TestOddKeyValuesKeepTrailingKey(t *testing.T) {
	r := &redactor{enabled: true}
	out := r.apply([]interface{}{"status", "ok", "dangling"})
	if len(out) != 3 || out[2] != "dangling" {
		t.Fatalf("trailing key: %+v", out)
	}
}
