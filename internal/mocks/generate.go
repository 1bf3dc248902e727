// Package mocks provides mock implementations for testing the meter export service.
//
// This package uses go.uber.org/mock (gomock) to generate type-safe mocks for the
// port interfaces in internal/core. The mocks are generated using go:generate
// directives and provide a fluent API for setting up test expectations.
//
// To regenerate mocks after interface changes, run:
//
//	go generate ./internal/mocks
//
// Usage in tests:
//
//	ctrl := gomock.NewController(t)
//	defer ctrl.Finish()
//	mockRepo := mocks.NewMockJobRepository(ctrl)
//	mockRepo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(job, nil)
package mocks

// Generate mock for JobRepository interface from internal/core package.
//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=job_repository_mock.go github.com/gridpoint/meter-export/internal/core JobRepository

// Generate mock for TaskQueue interface from internal/core package.
//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=task_queue_mock.go github.com/gridpoint/meter-export/internal/core TaskQueue

// Generate mock for ReadingGenerator interface from internal/core package.
//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=reading_generator_mock.go github.com/gridpoint/meter-export/internal/core ReadingGenerator

// Generate mocks for ArtifactStore and ArtifactWriter interfaces from internal/core package.
//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=artifact_store_mock.go github.com/gridpoint/meter-export/internal/core ArtifactStore,ArtifactWriter
