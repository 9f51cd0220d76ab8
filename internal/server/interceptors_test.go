package server

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

const testMethod = "/spinner.v1.Admin/Reload"

// stubHandler is a no-op gRPC handler used in interceptor tests.
func stubHandler(_ context.Context, _ any) (any, error) {
	return "ok", nil
}

func TestAuthInterceptor(t *testing.T) {
	withAuth := func(v string) context.Context {
		return metadata.NewIncomingContext(context.Background(), metadata.Pairs("authorization", v))
	}
	for _, tc := range []struct {
		name   string
		token  string
		method string
		ctx    context.Context
		code   codes.Code
	}{
		{"Disabled", "", testMethod, context.Background(), codes.OK},
		{"HealthCheckExempt", "secret", "/grpc.health.v1.Health/Check", context.Background(), codes.OK},
		{"HealthListExempt", "secret", "/grpc.health.v1.Health/List", context.Background(), codes.OK},
		{"MissingMetadata", "secret", testMethod, context.Background(), codes.Unauthenticated},
		{"MissingAuthHeader", "secret", testMethod, metadata.NewIncomingContext(context.Background(), metadata.Pairs("other", "v")), codes.Unauthenticated},
		{"WrongToken", "secret", testMethod, withAuth("Bearer wrong"), codes.Unauthenticated},
		{"InvalidScheme", "secret", testMethod, withAuth("Basic secret"), codes.Unauthenticated},
		{"CorrectToken", "secret", testMethod, withAuth("Bearer secret"), codes.OK},
	} {
		t.Run(tc.name, func(t *testing.T) {
			resp, err := AuthInterceptor(tc.token)(tc.ctx, nil, &grpc.UnaryServerInfo{FullMethod: tc.method}, stubHandler)
			if got := status.Code(err); got != tc.code {
				t.Fatalf("code = %v, want %v (err %v)", got, tc.code, err)
			}
			if tc.code == codes.OK && resp != "ok" {
				t.Fatalf("expected 'ok', got %v", resp)
			}
		})
	}
}

func TestAuthMiddleware(t *testing.T) {
	inner := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	for _, tc := range []struct {
		name  string
		token string
		path  string
		auth  string
		code  int
	}{
		{"Disabled", "", "/v1/meetings", "", http.StatusTeapot},
		{"NoHeader", "secret", "/v1/meetings", "", http.StatusUnauthorized},
		{"WrongToken", "secret", "/v1/meetings", "Bearer nope", http.StatusUnauthorized},
		{"InvalidScheme", "secret", "/v1/meetings", "Token secret", http.StatusUnauthorized},
		{"CorrectToken", "secret", "/v1/meetings", "Bearer secret", http.StatusTeapot},
		{"HealthExempt", "secret", "/v1/health", "", http.StatusTeapot},
		{"MetricsExempt", "secret", "/metrics", "", http.StatusTeapot},
	} {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tc.path, nil)
			if tc.auth != "" {
				req.Header.Set("Authorization", tc.auth)
			}
			rec := httptest.NewRecorder()
			AuthMiddleware(tc.token, inner).ServeHTTP(rec, req)
			if rec.Code != tc.code {
				t.Fatalf("expected %d, got %d; body: %s", tc.code, rec.Code, rec.Body.String())
			}
		})
	}
}

func TestLoggingInterceptor_PassesThrough(t *testing.T) {
	boom := status.Error(codes.Unavailable, "down")
	_, err := LoggingInterceptor(context.Background(), nil, &grpc.UnaryServerInfo{FullMethod: testMethod},
		func(context.Context, any) (any, error) { return nil, boom })
	if !errors.Is(err, boom) {
		t.Fatalf("expected handler error, got %v", err)
	}

	resp, err := LoggingInterceptor(context.Background(), nil, &grpc.UnaryServerInfo{FullMethod: testMethod}, stubHandler)
	if err != nil || resp != "ok" {
		t.Fatalf("resp=%v err=%v", resp, err)
	}
}

func TestRecoveryInterceptor(t *testing.T) {
	_, err := RecoveryInterceptor(context.Background(), nil, &grpc.UnaryServerInfo{FullMethod: testMethod},
		func(context.Context, any) (any, error) { panic("kaboom") })
	if status.Code(err) != codes.Internal {
		t.Fatalf("expected Internal, got %v", err)
	}
}
