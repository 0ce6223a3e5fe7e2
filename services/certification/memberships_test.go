package certification_test

import (
	"context"
	"testing"

	"sdssn/models"
	"sdssn/services/certification"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerifyMembership(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ada := f.member(t, "Ada", "Obi")
	cert := f.certification(t, "Professional Member", "professional", 1, models.DurationYears)
	m := f.approved(t, ada, cert)

	_, err := f.svc.VerifyMembership(ctx, "SDSSNUNKNOWN000")
	require.ErrorIs(t, err, certification.ErrNotFound)

	_, err = f.svc.VerifyMembership(ctx, m.SerialNo)
	require.ErrorIs(t, err, certification.ErrNotActive)

	_, err = f.svc.MarkPaid(ctx, f.admin, m.ID, "PAY-001")
	require.NoError(t, err)

	verified, err := f.svc.VerifyMembership(ctx, m.SerialNo)
	require.NoError(t, err)
	assert.Equal(t, m.SerialNo, verified.SerialNo)
	require.NotNil(t, verified.CertificationRequest)
	require.NotNil(t, verified.CertificationRequest.Certification)
	assert.Equal(t, "Professional Member", verified.CertificationRequest.Certification.Name)

	_, err = f.svc.VerifyMembership(ctx, m.SerialNo)
	require.NoError(t, err)
	assert.Equal(t, 1, f.cache.hits)
}

func TestMarkPaidActivatesMembershipAndRequest(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ada := f.member(t, "Ada", "Obi")
	cert := f.certification(t, "Professional Member", "professional", 1, models.DurationYears)
	m := f.approved(t, ada, cert)

	_, err := f.svc.MarkPaid(ctx, f.admin, m.ID, "  ")
	require.ErrorIs(t, err, certification.ErrValidation)

	paid, err := f.svc.MarkPaid(ctx, f.admin, m.ID, "PAY-001")
	require.NoError(t, err)
	assert.Equal(t, models.MembershipPaid, paid.Status)
	assert.Equal(t, "PAY-001", paid.PaymentReference)
	require.NotNil(t, paid.PaidAt)
	assert.Contains(t, f.cache.evicted, m.SerialNo)

	req, err := f.svc.ShowRequest(ctx, m.CertificationRequestID)
	require.NoError(t, err)
	assert.Equal(t, models.RequestPaid, req.Status)

	_, err = f.svc.MarkPaid(ctx, f.admin, m.ID, "PAY-002")
	require.ErrorIs(t, err, certification.ErrInvalidTransition)

	_, err = f.svc.MarkPaid(ctx, f.admin, 999, "PAY-003")
	require.ErrorIs(t, err, certification.ErrNotFound)
}

func TestMembershipCodeIsStable(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ada := f.member(t, "Ada", "Obi")
	ben := f.member(t, "Ben", "Eze")
	cert := f.certification(t, "Professional Member", "professional", 1, models.DurationYears)
	first := f.approved(t, ada, cert)
	second := f.approved(t, ben, cert)

	assert.Equal(t, "SDSSN-M-000001", first.MembershipCode)
	assert.Equal(t, "SDSSN-M-000002", second.MembershipCode)
	assert.NotEqual(t, first.SerialNo, second.SerialNo)

	for i := 0; i < 2; i++ {
		again, err := f.svc.ShowMembership(ctx, first.ID)
		require.NoError(t, err)
		assert.Equal(t, first.MembershipCode, again.MembershipCode)
		assert.Equal(t, first.SerialNo, again.SerialNo)
	}
}

func TestShowOwnMembership(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ada := f.member(t, "Ada", "Obi")
	ben := f.member(t, "Ben", "Eze")
	cert := f.certification(t, "Professional Member", "professional", 1, models.DurationYears)
	m := f.approved(t, ada, cert)

	_, err := f.svc.ShowOwnMembership(ctx, ada, m.ID)
	require.ErrorIs(t, err, certification.ErrNotActive)

	_, err = f.svc.MarkPaid(ctx, f.admin, m.ID, "PAY-001")
	require.NoError(t, err)

	_, err = f.svc.ShowOwnMembership(ctx, ben, m.ID)
	require.ErrorIs(t, err, certification.ErrNotFound)

	own, err := f.svc.ShowOwnMembership(ctx, ada, m.ID)
	require.NoError(t, err)
	assert.Equal(t, m.ID, own.ID)
	require.NotNil(t, own.User)
	assert.Equal(t, "ada.obi@example.com", own.User.Email)
}

func TestUpdateMembershipNameResetsCertificate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ada := f.member(t, "Ada", "Obi")
	cert := f.certification(t, "Professional Member", "professional", 1, models.DurationYears)
	m := f.approved(t, ada, cert)

	generated := models.CertificateGenerated
	_, err := f.svc.UpdateMembership(ctx, f.admin, m.ID, certification.MembershipPatch{CertificateStatus: &generated})
	require.NoError(t, err)

	name := "Ada N. Obi"
	updated, err := f.svc.UpdateMembership(ctx, f.admin, m.ID, certification.MembershipPatch{FullName: &name})
	require.NoError(t, err)
	assert.Equal(t, name, updated.FullName)
	assert.Equal(t, models.CertificatePending, updated.CertificateStatus)
	assert.Equal(t, m.SerialNo, updated.SerialNo)
	assert.Equal(t, m.MembershipCode, updated.MembershipCode)
	assert.Contains(t, f.cache.evicted, m.SerialNo)

	bad := "archived"
	_, err = f.svc.UpdateMembership(ctx, f.admin, m.ID, certification.MembershipPatch{CertificateStatus: &bad})
	require.ErrorIs(t, err, certification.ErrValidation)

	_, err = f.svc.UpdateMembership(ctx, f.admin, m.ID, certification.MembershipPatch{})
	require.ErrorIs(t, err, certification.ErrValidation)
}

func TestListAndSearchMemberships(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ada := f.member(t, "Ada", "Obi")
	ben := f.member(t, "Ben", "Eze")
	cert := f.certification(t, "Professional Member", "professional", 1, models.DurationYears)
	adaM := f.approved(t, ada, cert)
	benM := f.approved(t, ben, cert)
	_, err := f.svc.MarkPaid(ctx, f.admin, benM.ID, "PAY-001")
	require.NoError(t, err)

	all, err := f.svc.ListMemberships(ctx, certification.MembershipFilter{})
	require.NoError(t, err)
	assert.EqualValues(t, 2, all.Meta.Total)

	paid, err := f.svc.ListMemberships(ctx, certification.MembershipFilter{Status: models.MembershipPaid})
	require.NoError(t, err)
	require.Len(t, paid.Items, 1)
	assert.Equal(t, benM.ID, paid.Items[0].ID)

	byDay, err := f.svc.ListMemberships(ctx, certification.MembershipFilter{IssuedOn: "2025-03-10", ExpiresOn: "2026-03-10"})
	require.NoError(t, err)
	assert.EqualValues(t, 2, byDay.Meta.Total)

	none, err := f.svc.ListMemberships(ctx, certification.MembershipFilter{IssuedOn: "2025-03-11"})
	require.NoError(t, err)
	assert.Empty(t, none.Items)

	_, err = f.svc.ListMemberships(ctx, certification.MembershipFilter{IssuedOn: "10/03/2025"})
	require.ErrorIs(t, err, certification.ErrValidation)

	found, err := f.svc.SearchMemberships(ctx, adaM.SerialNo, certification.PageQuery{})
	require.NoError(t, err)
	require.Len(t, found.Items, 1)
	assert.Equal(t, adaM.ID, found.Items[0].ID)

	byName, err := f.svc.SearchMemberships(ctx, "ben", certification.PageQuery{})
	require.NoError(t, err)
	require.Len(t, byName.Items, 1)
	assert.Equal(t, benM.ID, byName.Items[0].ID)

	empty, err := f.svc.SearchMemberships(ctx, "nobody", certification.PageQuery{})
	require.NoError(t, err)
	assert.Empty(t, empty.Items)

	_, err = f.svc.SearchMemberships(ctx, " ", certification.PageQuery{})
	require.ErrorIs(t, err, certification.ErrValidation)

	mine, err := f.svc.MyMemberships(ctx, ada, certification.PageQuery{})
	require.NoError(t, err)
	require.Len(t, mine.Items, 1)
	assert.Equal(t, adaM.ID, mine.Items[0].ID)
}

func TestDeleteMembership(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ada := f.member(t, "Ada", "Obi")
	cert := f.certification(t, "Professional Member", "professional", 1, models.DurationYears)
	m := f.approved(t, ada, cert)

	require.NoError(t, f.svc.DeleteMembership(ctx, f.admin, m.ID))
	assert.Contains(t, f.cache.evicted, m.SerialNo)

	_, err := f.svc.ShowMembership(ctx, m.ID)
	require.ErrorIs(t, err, certification.ErrNotFound)

	err = f.svc.DeleteMembership(ctx, f.admin, m.ID)
	require.ErrorIs(t, err, certification.ErrNotFound)
}
