package utils

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
)

const (
	ReminderWindow   = 30 * 24 * time.Hour
	reminderSchedule = "0 9 * * *"
	sweepBatchSize   = 50
	jobTimeout       = 10 * time.Minute
)

// CertificateJobs is the work the scheduler drives.
type CertificateJobs interface {
	GeneratePendingCertificates(ctx context.Context, limit int) (int, error)
	SendExpiryReminders(ctx context.Context, window time.Duration) (int, error)
}

// InitializeCertificateScheduler registers the certificate sweep on
// generationSpec and the daily expiry reminder, then starts the cron. The
// caller stops it on shutdown.
func InitializeCertificateScheduler(generationSpec string, jobs CertificateJobs) (*cron.Cron, error) {
	Log.Info("[CERTIFICATE-SCHEDULER] Initializing certificate scheduler...")

	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))

	if _, err := c.AddFunc(generationSpec, func() { RunCertificateSweep(jobs) }); err != nil {
		return nil, err
	}
	if _, err := c.AddFunc(reminderSchedule, func() { RunExpiryReminders(jobs) }); err != nil {
		return nil, err
	}

	c.Start()
	Log.Infof("[CERTIFICATE-SCHEDULER] Started - sweep %q, reminders %q", generationSpec, reminderSchedule)
	return c, nil
}

// RunCertificateSweep renders certificates for memberships still pending.
func RunCertificateSweep(jobs CertificateJobs) {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	n, err := jobs.GeneratePendingCertificates(ctx, sweepBatchSize)
	if err != nil {
		Log.Errorf("[CERTIFICATE-SCHEDULER] Error generating certificates: %v", err)
		return
	}
	if n > 0 {
		Log.Infof("[CERTIFICATE-SCHEDULER] Generated %d certificates", n)
	}
}

// RunExpiryReminders notifies members whose membership expires soon.
func RunExpiryReminders(jobs CertificateJobs) {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	n, err := jobs.SendExpiryReminders(ctx, ReminderWindow)
	if err != nil {
		Log.Errorf("[CERTIFICATE-SCHEDULER] Error sending expiry reminders: %v", err)
		return
	}
	Log.Infof("[CERTIFICATE-SCHEDULER] Sent %d expiry reminders", n)
}
