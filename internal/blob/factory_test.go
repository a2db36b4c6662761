package blob

import (
	"context"
	"path/filepath"
	"testing"

	"whatdose/internal/infra/blob/s3"
)

func TestOpenDrivers(t *testing.T) {
	ctx := context.Background()
	cases := []struct {
		name    string
		cfg     Config
		want    Driver
		wantNil bool
		wantErr bool
	}{
		{name: "empty disables archive", cfg: Config{}, wantNil: true},
		{name: "none disables archive", cfg: Config{Driver: "none"}, wantNil: true},
		{name: "memory", cfg: Config{Driver: "memory"}, want: DriverMemory},
		{name: "fs", cfg: Config{Driver: "FS", FSRoot: filepath.Join(t.TempDir(), "a")}, want: DriverFilesystem},
		{name: "s3 without bucket", cfg: Config{Driver: "s3", S3: s3.Config{}}, wantErr: true},
		{name: "unknown", cfg: Config{Driver: "ftp"}, wantErr: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store, err := Open(ctx, tc.cfg)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("open: %v", err)
			}
			if tc.wantNil {
				if store != nil {
					t.Fatalf("expected nil store, got %T", store)
				}
				return
			}
			if store.Driver() != tc.want {
				t.Fatalf("driver = %s, want %s", store.Driver(), tc.want)
			}
		})
	}
}
