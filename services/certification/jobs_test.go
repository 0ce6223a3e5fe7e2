package certification_test

import (
	"context"
	"testing"
	"time"

	"sdssn/models"
	"sdssn/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeneratePendingCertificates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ada := f.member(t, "Ada", "Obi")
	ben := f.member(t, "Ben", "Eze")
	cert := f.certification(t, "Professional Member", "professional", 1, models.DurationYears)
	adaM := f.approved(t, ada, cert)
	benM := f.approved(t, ben, cert)

	n, err := f.svc.GeneratePendingCertificates(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	for _, m := range []*models.Membership{adaM, benM} {
		got, err := f.svc.ShowMembership(ctx, m.ID)
		require.NoError(t, err)
		assert.Equal(t, models.CertificateGenerated, got.CertificateStatus)
		assert.Equal(t, "https://assets.test/certificates/"+m.SerialNo+".html", got.CertificateURL)
	}

	assert.ElementsMatch(t, []string{adaM.SerialNo, benM.SerialNo}, f.cache.evicted)

	require.Len(t, f.assets.uploads, 2)
	for _, u := range f.assets.uploads {
		assert.Equal(t, "certificates", u.folder)
		assert.Contains(t, u.body, "Professional Member")
	}

	n, err = f.svc.GeneratePendingCertificates(ctx, 10)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestGeneratePendingCertificatesReleasesFailures(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ada := f.member(t, "Ada", "Obi")
	cert := f.certification(t, "Professional Member", "professional", 1, models.DurationYears)
	m := f.approved(t, ada, cert)

	f.assets.err = errBoom
	n, err := f.svc.GeneratePendingCertificates(ctx, 10)
	require.NoError(t, err)
	assert.Zero(t, n)

	got, err := f.svc.ShowMembership(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, models.CertificatePending, got.CertificateStatus)
	assert.Empty(t, got.CertificateURL)
}

func TestGeneratePendingCertificatesReclaimsStaleClaims(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ada := f.member(t, "Ada", "Obi")
	ben := f.member(t, "Ben", "Eze")
	cert := f.certification(t, "Professional Member", "professional", 1, models.DurationYears)
	stale := f.approved(t, ada, cert)
	fresh := f.approved(t, ben, cert)

	require.NoError(t, f.db.Model(&models.Membership{}).Where("id = ?", stale.ID).UpdateColumns(map[string]interface{}{
		"certificate_status": models.CertificateProcessing,
		"updated_at":         clock.Add(-2 * time.Hour),
	}).Error)
	require.NoError(t, f.db.Model(&models.Membership{}).Where("id = ?", fresh.ID).UpdateColumns(map[string]interface{}{
		"certificate_status": models.CertificateProcessing,
		"updated_at":         clock.Add(-5 * time.Minute),
	}).Error)

	n, err := f.svc.GeneratePendingCertificates(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, err := f.svc.ShowMembership(ctx, stale.ID)
	require.NoError(t, err)
	assert.Equal(t, models.CertificateGenerated, got.CertificateStatus)

	got, err = f.svc.ShowMembership(ctx, fresh.ID)
	require.NoError(t, err)
	assert.Equal(t, models.CertificateProcessing, got.CertificateStatus)
}

func TestSendExpiryReminders(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ada := f.member(t, "Ada", "Obi")
	ben := f.member(t, "Ben", "Eze")
	carl := f.member(t, "Carl", "Uche")
	short := f.certification(t, "Event Pass", "event", 20, models.DurationDays)
	long := f.certification(t, "Professional Member", "professional", 1, models.DurationYears)

	soon := f.approved(t, ada, short)
	unpaid := f.approved(t, ben, short)
	later := f.approved(t, carl, long)
	for _, m := range []*models.Membership{soon, later} {
		_, err := f.svc.MarkPaid(ctx, f.admin, m.ID, "PAY")
		require.NoError(t, err)
	}

	sent, err := f.svc.SendExpiryReminders(ctx, utils.ReminderWindow)
	require.NoError(t, err)
	assert.Equal(t, 1, sent)
	assert.Equal(t, []uint{soon.ID}, f.notifier.expiring)
	assert.NotContains(t, f.notifier.expiring, unpaid.ID)

	sent, err = f.svc.SendExpiryReminders(ctx, 30*24*time.Hour)
	require.NoError(t, err)
	assert.Zero(t, sent)
}
