package v1handler_test

import (
	"testing"

	"anagram/internal/api/handler/v1handler"

	"github.com/go-faster/jx"
	"github.com/stretchr/testify/require"
)

func TestDecodeCreateCheckRequest(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    v1handler.CreateCheckRequest
		wantErr string
	}{
		{
			name:  "sync",
			input: `{"a":"Dormitory","b":"dirty room"}`,
			want:  v1handler.CreateCheckRequest{A: "Dormitory", B: "dirty room"},
		},
		{
			name:  "async with unknown fields",
			input: `{"async":true,"meta":{"x":[1]},"b":"","a":"é"}`,
			want:  v1handler.CreateCheckRequest{A: "é", B: "", Async: true},
		},
		{name: "missing b", input: `{"a":"x"}`, wantErr: `"b"`},
		{name: "missing a", input: `{"b":"x"}`, wantErr: `"a"`},
		{name: "wrong type", input: `{"a":"x","b":false}`, wantErr: `decode field "b"`},
		{name: "not an object", input: `"ab"`, wantErr: "decode request"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := v1handler.DecodeCreateCheckRequest(jx.DecodeStr(tt.input))
			if tt.wantErr != "" {
				require.ErrorContains(t, err, tt.wantErr)

				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}
