package errors

import (
	"testing"
)

func TestValidateResourceID(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid simple", "web", false},
		{"valid with dash", "my-service", false},
		{"valid with underscore", "api_handler", false},
		{"valid with dot", "aws_lambda_function.api", false},

		{"empty", "", true},
		{"too long", string(make([]byte, 300)), true},
		{"path traversal ..", "foo/../bar", true},
		{"path traversal //", "foo//bar", true},
		{"null byte", "foo\x00bar", true},
		{"backslash", "foo\\bar", true},
		{"control char", "foo\x01bar", true},
		{"newline", "foo\nbar", true},
		{"carriage return", "foo\rbar", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateResourceID(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateResourceID(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidateURL(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"https", "https://example.com/path", false},
		{"http", "http://example.com/path", false},

		{"empty", "", true},
		{"ftp", "ftp://example.com", true},
		{"file", "file:///etc/passwd", true},
		{"javascript", "javascript:alert(1)", true},
		{"no scheme", "example.com", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateURL(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateURL(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidateTitle(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"empty", "", false},
		{"simple", "Production Infrastructure", false},
		{"unicode", "Déploiement — EU West", false},

		{"too long", string(make([]byte, 200)), true},
		{"newline", "line1\nline2", true},
		{"control char", "bad\x01title", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateTitle(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateTitle(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidateResourceAddress(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"root resource", "aws_lambda_function.api", false},
		{"module resource", "module.web.aws_s3_bucket.assets", false},
		{"nested module", "module.web.module.cdn.aws_cloudfront_distribution.main", false},
		{"dotted name", "aws_route53_record.www.example.com", false},

		{"empty", "", true},
		{"no resource name", "aws_lambda_function", true},
		{"uppercase type", "AWS_Lambda.api", true},
		{"traversal", "module.../aws_s3_bucket.x", true},
		{"spaces", "aws_s3_bucket. my bucket", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateResourceAddress(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateResourceAddress(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidateModuleName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"root grouping", "_root", false},
		{"simple", "web", false},
		{"with dash", "edge-cache", false},
		{"with underscore", "data_layer", false},

		{"empty", "", true},
		{"starts with underscore", "_hidden", true},
		{"starts with dash", "-module", true},
		{"with dot", "my.module", true},
		{"with slash", "my/module", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateModuleName(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateModuleName(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidatePath(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid simple", "out/arch.svg", false},
		{"valid nested", "diagrams/prod/web.svg", false},
		{"valid filename only", "arch.svg", false},
		{"valid absolute", "/tmp/arch.svg", false},

		{"empty", "", true},
		{"too long", string(make([]byte, 600)), true},
		{"path traversal", "../../../etc/passwd", true},
		{"path traversal middle", "foo/../bar", true},
		{"null byte", "foo\x00bar", true},
		{"backslash", "foo\\bar", true},
		{"control char", "foo\x01bar", true},
		{"newline", "foo\nbar", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePath(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePath(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeInvalidPath) {
				t.Errorf("ValidatePath(%q) returned wrong error code: %v", tt.input, err)
			}
		})
	}
}

func TestErrorCodesAreUnique(t *testing.T) {
	codes := []Code{
		ErrCodeInvalidInput,
		ErrCodeInvalidFormat,
		ErrCodeInvalidConfig,
		ErrCodeInvalidPath,
		ErrCodeMalformedInput,
		ErrCodeEmptyGraph,
		ErrCodeUnclassifiableNode,
		ErrCodeRoutingUnreachable,
		ErrCodeRender,
		ErrCodeNotFound,
		ErrCodeFileNotFound,
		ErrCodeDiagramNotFound,
		ErrCodeNetwork,
		ErrCodeTimeout,
		ErrCodeRateLimited,
		ErrCodeStore,
		ErrCodeInternal,
		ErrCodeUnsupported,
	}

	seen := make(map[Code]bool)
	for _, code := range codes {
		if seen[code] {
			t.Errorf("Duplicate error code: %s", code)
		}
		seen[code] = true
	}
}
