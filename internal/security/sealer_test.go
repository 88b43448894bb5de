package security

import (
	"bytes"
	"errors"
	"testing"
)

func TestNewSealer_EmptyPassphrase(t *testing.T) {
	if _, err := NewSealer(""); err == nil {
		t.Error("空のパスフレーズはエラーになるべき")
	}
}

func TestSealer_RoundTrip(t *testing.T) {
	s, err := NewSealer("correct horse battery staple")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	plaintext := []byte(`{"accessToken":"abc"}`)
	sealed, err := s.Seal(plaintext)
	if err != nil {
		t.Fatalf("Seal failed: %v", err)
	}
	if bytes.Contains(sealed, plaintext) {
		t.Error("暗号文に平文が含まれている")
	}

	opened, err := s.Open(sealed)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if !bytes.Equal(opened, plaintext) {
		t.Errorf("Open = %q, want %q", opened, plaintext)
	}
}

// 同じ平文でも毎回異なる暗号文になること（salt/nonceの再利用がない）
func TestSealer_FreshNoncePerSeal(t *testing.T) {
	s, _ := NewSealer("pass")
	a, _ := s.Seal([]byte("same"))
	b, _ := s.Seal([]byte("same"))
	if bytes.Equal(a, b) {
		t.Error("同一平文の暗号文が一致した")
	}
}

func TestSealer_WrongPassphrase(t *testing.T) {
	s1, _ := NewSealer("pass-1")
	s2, _ := NewSealer("pass-2")

	sealed, _ := s1.Seal([]byte("secret"))
	if _, err := s2.Open(sealed); !errors.Is(err, ErrSealedDataInvalid) {
		t.Errorf("誤ったパスフレーズはErrSealedDataInvalidを返すべき: got %v", err)
	}
}

func TestSealer_Tampered(t *testing.T) {
	s, _ := NewSealer("pass")
	sealed, _ := s.Seal([]byte("secret"))

	tests := []struct {
		name string
		data []byte
	}{
		{"短すぎる", sealed[:10]},
		{"magic不一致", append([]byte("XXXX"), sealed[4:]...)},
		{"salt改ざん", flipByte(sealed, 5)},
		{"本文改ざん", flipByte(sealed, len(sealed)-1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := s.Open(tt.data); !errors.Is(err, ErrSealedDataInvalid) {
				t.Errorf("got %v, want ErrSealedDataInvalid", err)
			}
		})
	}
}

func flipByte(b []byte, i int) []byte {
	out := append([]byte(nil), b...)
	out[i] ^= 0xff
	return out
}
