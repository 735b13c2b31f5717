package storage

import "context"

type NoopStorage struct {
}

func (s *NoopStorage) MakeRun(ctx context.Context, rid string) error {
	return nil
}

func (s *NoopStorage) RemRun(ctx context.Context, rid string) error {
	return nil
}

func (s *NoopStorage) GetRun(ctx context.Context, rid string) ([]*Record, error) {
	return nil, nil
}

func (s *NoopStorage) WriteRecords(ctx context.Context, rid string, rs []*Record) error {
	return nil
}

func (s *NoopStorage) Open(ctx context.Context) error {
	return nil
}

func (s *NoopStorage) Close(ctx context.Context) error {
	return nil
}
