package validation

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestConfigValidator_Required(t *testing.T) {
	cv := NewConfigValidator("StorageConfig")
	cv.Required("Path", "")

	if !cv.HasErrors() {
		t.Error("Expected error for empty required field")
	}

	cv2 := NewConfigValidator("StorageConfig")
	cv2.Required("Path", "./data/paths.snappy")

	if cv2.HasErrors() {
		t.Error("Expected no error for non-empty required field")
	}
}

func TestConfigValidator_RangeInt(t *testing.T) {
	tests := []struct {
		name      string
		value     int
		min       int
		max       int
		expectErr bool
	}{
		{"below range", 0, 1, 1000, true},
		{"at min", 1, 1, 1000, false},
		{"in range", 100, 1, 1000, false},
		{"at max", 1000, 1, 1000, false},
		{"above range", 1001, 1, 1000, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cv := NewConfigValidator("HistoryConfig")
			cv.RangeInt("Capacity", tt.value, tt.min, tt.max)

			if cv.HasErrors() != tt.expectErr {
				t.Errorf("RangeInt(%d, %d, %d) error = %v, want %v",
					tt.value, tt.min, tt.max, cv.HasErrors(), tt.expectErr)
			}
		})
	}
}

func TestConfigValidator_RangeDuration(t *testing.T) {
	cv := NewConfigValidator("PersistenceConfig")
	cv.RangeDuration("Debounce", 0, time.Millisecond, time.Minute)
	if !cv.HasErrors() {
		t.Error("Expected error for zero debounce")
	}

	cv2 := NewConfigValidator("PersistenceConfig")
	cv2.RangeDuration("Debounce", 500*time.Millisecond, time.Millisecond, time.Minute)
	if cv2.HasErrors() {
		t.Errorf("Expected no error, got %v", cv2.Errors())
	}
}

func TestConfigValidator_Floats(t *testing.T) {
	cv := NewConfigValidator("LayoutConfig")
	cv.PositiveFloat("RankSpacing", 0).
		NonNegativeFloat("BranchOffset", -1)

	if len(cv.Errors()) != 2 {
		t.Fatalf("Expected 2 errors, got %d", len(cv.Errors()))
	}

	cv2 := NewConfigValidator("LayoutConfig")
	cv2.PositiveFloat("RankSpacing", 250).NonNegativeFloat("BranchOffset", 0)
	if cv2.HasErrors() {
		t.Errorf("Expected no errors, got %v", cv2.Errors())
	}
}

func TestConfigValidator_OneOf(t *testing.T) {
	allowed := []string{"memory", "file", "sqlite", "postgres"}

	cv := NewConfigValidator("StorageConfig")
	cv.OneOf("Backend", "redis", allowed)
	if !cv.HasErrors() {
		t.Error("Expected error for unknown backend")
	}

	cv2 := NewConfigValidator("StorageConfig")
	cv2.OneOf("Backend", "sqlite", allowed)
	if cv2.HasErrors() {
		t.Error("Expected no error for known backend")
	}
}

func TestConfigValidator_When(t *testing.T) {
	cv := NewConfigValidator("StorageConfig")
	cv.When(false, func(v *ConfigValidator) {
		v.Required("DatabaseURL", "")
	})
	if cv.HasErrors() {
		t.Error("Expected skipped validations to produce no errors")
	}

	cv.When(true, func(v *ConfigValidator) {
		v.Required("DatabaseURL", "")
	})
	if !cv.HasErrors() {
		t.Error("Expected conditional validation to run")
	}
}

func TestConfigValidator_Validate(t *testing.T) {
	cv := NewConfigValidator("Config")
	if err := cv.Validate(); err != nil {
		t.Errorf("Expected nil error, got %v", err)
	}

	cv.Required("A", "")
	single := cv.Validate()
	if single == nil || !strings.Contains(single.Error(), "Config.A") {
		t.Errorf("Expected single error naming the field, got %v", single)
	}

	cv.Positive("B", 0)
	combined := cv.Validate()
	if combined == nil {
		t.Fatal("Expected combined error")
	}
	if !strings.Contains(combined.Error(), "2 errors") {
		t.Errorf("Expected error count in message, got %q", combined.Error())
	}
	for _, e := range cv.Errors() {
		if !errors.Is(combined, e) {
			t.Errorf("Expected combined error to wrap %v", e)
		}
	}
}

func TestFieldError(t *testing.T) {
	cv := NewConfigValidator("Config").RangeInt("history.capacity", 0, 1, 10000)
	err := cv.Validate()

	if !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("Expected ErrInvalidConfig, got %v", err)
	}
	var fe *FieldError
	if !errors.As(err, &fe) {
		t.Fatalf("Expected *FieldError, got %T", err)
	}
	if fe.Field != "history.capacity" || fe.Config != "Config" {
		t.Errorf("FieldError = %+v", fe)
	}

	joined := cv.Positive("layout.cache_size", 0).Validate()
	if !errors.Is(joined, ErrInvalidConfig) {
		t.Error("Expected joined error to match ErrInvalidConfig")
	}
}
