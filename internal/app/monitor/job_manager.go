package monitor

import "fmt"

// JobManager starts and stops the monitor's background jobs together.
type JobManager struct {
	fermentation *FermentationJob
	timeout      *TimeoutJob
	recovery     *RecoveryJob
}

func NewJobManager(fermentation *FermentationJob, timeout *TimeoutJob, recovery *RecoveryJob) *JobManager {
	return &JobManager{
		fermentation: fermentation,
		timeout:      timeout,
		recovery:     recovery,
	}
}

func (m *JobManager) StartAll() error {
	if err := m.fermentation.Start(); err != nil {
		return fmt.Errorf("failed to start fermentation job: %w", err)
	}

	if err := m.timeout.Start(); err != nil {
		m.fermentation.Stop()
		return fmt.Errorf("failed to start timeout job: %w", err)
	}

	if err := m.recovery.Start(); err != nil {
		m.fermentation.Stop()
		m.timeout.Stop()
		return fmt.Errorf("failed to start recovery job: %w", err)
	}

	return nil
}

func (m *JobManager) StopAll() {
	m.recovery.Stop()
	m.timeout.Stop()
	m.fermentation.Stop()
}
