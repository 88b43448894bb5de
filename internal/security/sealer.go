package security

import (
	"bytes"
	"crypto/rand"
	"errors"
	"fmt"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"
)

// sealedMagic は暗号化ファイルの先頭に置く識別子。
var sealedMagic = []byte("AFS1")

// argon2idのパラメータ。
const (
	argonTime    = 1
	argonMemory  = 64 * 1024
	argonThreads = 4
	saltSize     = 16
)

// ErrSealedDataInvalid は暗号化データの形式が不正、またはパスフレーズが一致しない場合のエラー。
var ErrSealedDataInvalid = errors.New("sealed data is invalid or passphrase is wrong")

// Sealer はパスフレーズから導出した鍵でデータを暗号化・復号する。
//
// 出力形式: magic(4) | salt(16) | nonce(24) | ciphertext
// 鍵はargon2idでsaltごとに導出し、XChaCha20-Poly1305で認証付き暗号化する。
type Sealer struct {
	passphrase []byte
}

// NewSealer はSealerを生成する。パスフレーズが空の場合はエラーを返す。
func NewSealer(passphrase string) (*Sealer, error) {
	if passphrase == "" {
		return nil, errors.New("passphrase must not be empty")
	}
	return &Sealer{passphrase: []byte(passphrase)}, nil
}

func (s *Sealer) deriveKey(salt []byte) []byte {
	return argon2.IDKey(s.passphrase, salt, argonTime, argonMemory, argonThreads, chacha20poly1305.KeySize)
}

// Seal は平文を暗号化する。呼び出しごとに新しいsaltとnonceを使う。
func (s *Sealer) Seal(plaintext []byte) ([]byte, error) {
	salt := make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("failed to generate salt: %w", err)
	}

	aead, err := chacha20poly1305.NewX(s.deriveKey(salt))
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}

	ad := append(append([]byte(nil), sealedMagic...), salt...)

	out := make([]byte, 0, len(ad)+len(nonce)+len(plaintext)+aead.Overhead())
	out = append(out, ad...)
	out = append(out, nonce...)
	// magicとsaltは追加認証データとして検証される
	return aead.Seal(out, nonce, plaintext, ad), nil
}

// Open は暗号文を復号する。
func (s *Sealer) Open(ciphertext []byte) ([]byte, error) {
	headerSize := len(sealedMagic) + saltSize + chacha20poly1305.NonceSizeX
	if len(ciphertext) < headerSize+chacha20poly1305.Overhead {
		return nil, ErrSealedDataInvalid
	}
	if !bytes.Equal(ciphertext[:len(sealedMagic)], sealedMagic) {
		return nil, ErrSealedDataInvalid
	}

	salt := ciphertext[len(sealedMagic) : len(sealedMagic)+saltSize]
	nonce := ciphertext[len(sealedMagic)+saltSize : headerSize]

	aead, err := chacha20poly1305.NewX(s.deriveKey(salt))
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	plaintext, err := aead.Open(nil, nonce, ciphertext[headerSize:], ciphertext[:len(sealedMagic)+saltSize])
	if err != nil {
		return nil, ErrSealedDataInvalid
	}
	return plaintext, nil
}
