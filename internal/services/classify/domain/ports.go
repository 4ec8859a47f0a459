package domain

import "context"

// RunnerPort drives one incremental classification pass
type RunnerPort interface {
	Run(ctx context.Context) (Report, error)
}
