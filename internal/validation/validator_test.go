package validation

import (
	"reflect"
	"strings"
	"testing"
)

type request struct {
	Hostname *string `validate:"required"`
	Process  *string `validate:"required"`
	Message  *string `validate:"required"`
}

type limits struct {
	Port  int    `validate:"min=1,max=65535"`
	Level string `validate:"oneof=debug info warn error"`
}

func strp(s string) *string { return &s }

func TestValidateStructOK(t *testing.T) {
	r := request{Hostname: strp("h"), Process: strp("p"), Message: strp("")}
	if err := ValidateStruct(r); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateStructMissingFieldsInOrder(t *testing.T) {
	tests := []struct {
		name string
		req  request
		want []string
	}{
		{"all missing", request{}, []string{"Hostname", "Process", "Message"}},
		{"hostname missing", request{Process: strp("p"), Message: strp("m")}, []string{"Hostname"}},
		{"process and message", request{Hostname: strp("h")}, []string{"Process", "Message"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateStruct(tt.req)
			if err == nil {
				t.Fatal("expected validation error")
			}
			if got := err.FieldsWithTag("required"); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("FieldsWithTag(required) = %v, want %v", got, tt.want)
			}
			if got := err.Fields(); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Fields() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestValidateStructMessages(t *testing.T) {
	err := ValidateStruct(limits{Port: 0, Level: "loud"})
	if err == nil {
		t.Fatal("expected validation error")
	}
	msg := err.Error()
	if !strings.Contains(msg, "limits.Port must be at least 1") {
		t.Errorf("missing port message: %q", msg)
	}
	if !strings.Contains(msg, "limits.Level must be one of: debug info warn error") {
		t.Errorf("missing level message: %q", msg)
	}
	if len(err.Errors()) != 2 {
		t.Errorf("expected 2 errors, got %d", len(err.Errors()))
	}
}

func TestGetValidatorSingleton(t *testing.T) {
	if GetValidator() != GetValidator() {
		t.Error("expected the same validator instance")
	}
}
