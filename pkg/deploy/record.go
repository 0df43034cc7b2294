package deploy

import (
	"bytes"
	"crypto/ed25519"
	"encoding/hex"
	"encoding/json"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
)

// Record is one line of the store log.
type Record struct {
	ID        string    `json:"id"`
	Key       string    `json:"key"`
	PublicKey string    `json:"pubkey"`
	Secret    string    `json:"secret"`
	CreatedAt time.Time `json:"created_at"`
}

func newRecord(key string, account ed25519.PrivateKey) *Record {
	return &Record{
		ID:        uuid.New().String(),
		Key:       key,
		PublicKey: base58.Encode(account.Public().(ed25519.PublicKey)),
		Secret:    hex.EncodeToString(account),
		CreatedAt: time.Now().UTC(),
	}
}

// Account decodes the record's keypair, checking it against the stored
// public key.
func (r *Record) Account() (ed25519.PrivateKey, error) {
	secret, err := hex.DecodeString(r.Secret)
	if err != nil {
		return nil, errors.Wrapf(ErrCorruptRecord, "%s: secret is not hex", r.Key)
	}
	if len(secret) != ed25519.PrivateKeySize {
		return nil, errors.Wrapf(ErrCorruptRecord, "%s: secret has %d bytes", r.Key, len(secret))
	}

	pub, err := base58.Decode(r.PublicKey)
	if err != nil {
		return nil, errors.Wrapf(ErrCorruptRecord, "%s: pubkey is not base58", r.Key)
	}

	account := ed25519.PrivateKey(secret)
	if !bytes.Equal(pub, account.Public().(ed25519.PublicKey)) {
		return nil, errors.Wrapf(ErrCorruptRecord, "%s: pubkey does not match secret", r.Key)
	}
	return account, nil
}

type legacyRecord struct {
	Secret    string `json:"secret"`
	PublicKey string `json:"pubkey"`
}

// readLegacyRecords parses a store written as one JSON object keyed by record
// key. ok is false when data is not in that form.
func readLegacyRecords(data []byte) (records []*Record, ok bool, err error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, false, nil
	}

	var legacy map[string]legacyRecord
	if err := json.Unmarshal(trimmed, &legacy); err != nil {
		return nil, false, nil
	}

	keys := make([]string, 0, len(legacy))
	for key := range legacy {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	now := time.Now().UTC()
	for _, key := range keys {
		r := &Record{
			ID:        uuid.New().String(),
			Key:       key,
			PublicKey: legacy[key].PublicKey,
			Secret:    legacy[key].Secret,
			CreatedAt: now,
		}
		if err := r.validate(); err != nil {
			return nil, false, errors.Wrapf(ErrCorruptStore, "legacy record: %v", err)
		}
		records = append(records, r)
	}
	return records, true, nil
}

func (r *Record) validate() error {
	if r.Key == "" {
		return errors.Wrap(ErrCorruptRecord, "missing key")
	}
	_, err := r.Account()
	return err
}

func (r *Record) marshalLine() ([]byte, error) {
	b, err := json.Marshal(r)
	if err != nil {
		return nil, err
	}
	return append(b, '\n'), nil
}
