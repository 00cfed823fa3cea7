// Package mocks provides generated mocks for the port interfaces.
//
// Mocks are generated with go.uber.org/mock (gomock) and committed so
// tests build without a codegen step. To regenerate after interface
// changes, run:
//
//	go generate ./internal/mocks
//
// Usage in tests:
//
//	ctrl := gomock.NewController(t)
//	oracle := mocks.NewMockPermissionOracle(ctrl)
//	oracle.EXPECT().Check(gomock.Any(), gomock.Any()).Return(true, nil)
package mocks

//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=session_store_mock.go github.com/Egem97/ttl-apg/internal/ports SessionStore

//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=permission_oracle_mock.go github.com/Egem97/ttl-apg/internal/ports PermissionOracle

//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=user_authenticator_mock.go github.com/Egem97/ttl-apg/internal/ports UserAuthenticator
