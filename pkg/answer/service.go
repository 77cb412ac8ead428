package answer

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-logr/logr"
	"github.com/paragor/answer-store/pkg/kv"
)

var (
	// ErrMissingField is returned when a submission carries no value.
	ErrMissingField = errors.New("data field is required")
	// ErrStorageUnavailable wraps every failure of the underlying store.
	ErrStorageUnavailable = errors.New("storage unavailable")
)

type Service struct {
	logger      logr.Logger
	store       kv.Store
	placeholder string
}

func NewService(logger logr.Logger, store kv.Store, placeholder string) *Service {
	return &Service{
		logger:      logger.WithName("answer"),
		store:       store,
		placeholder: placeholder,
	}
}

// Init writes the placeholder record unless a record already exists.
func (s *Service) Init(ctx context.Context) error {
	_, err := s.store.Get(ctx, Key)
	if err == nil {
		return nil
	}
	if !errors.Is(err, kv.ErrNotFound) {
		return fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
	}

	if err := s.write(ctx, s.placeholder); err != nil {
		return err
	}
	s.logger.V(1).Info("initialized answer record", "placeholder", s.placeholder)
	return nil
}

// Submit replaces the stored value. It returns once the value is persisted.
func (s *Service) Submit(ctx context.Context, value string) error {
	if value == "" {
		return ErrMissingField
	}
	if err := s.write(ctx, value); err != nil {
		s.logger.Error(err, "storing answer")
		return err
	}
	s.logger.Info("received new data", "data", value)
	return nil
}

// FetchLatest returns the stored value, or the placeholder when nothing has
// been stored yet.
func (s *Service) FetchLatest(ctx context.Context) (StoredValue, error) {
	raw, err := s.store.Get(ctx, Key)
	if errors.Is(err, kv.ErrNotFound) {
		return StoredValue{Data: s.placeholder}, nil
	}
	if err != nil {
		s.logger.Error(err, "reading answer")
		return StoredValue{}, fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
	}

	v, err := decodeRecord(raw)
	if err != nil {
		s.logger.Error(err, "decoding answer")
		return StoredValue{}, fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
	}
	return v, nil
}

func (s *Service) write(ctx context.Context, value string) error {
	raw, err := encodeRecord(StoredValue{Data: value})
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}
	if err := s.store.Set(ctx, Key, raw); err != nil {
		return fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
	}
	return nil
}
