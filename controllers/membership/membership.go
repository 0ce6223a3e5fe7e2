package membershipController

import (
	"sdssn/middleware"
	"sdssn/services/certification"
	"sdssn/validators"
	membershipValidator "sdssn/validators/membership"

	"github.com/gofiber/fiber/v2"
)

// Service is set at boot.
var Service *certification.Service

func Init(svc *certification.Service) {
	Service = svc
}

func actor(c *fiber.Ctx) (certification.Actor, error) {
	a, ok := middleware.ActorFrom(c)
	if !ok {
		return a, fiber.NewError(fiber.StatusUnauthorized, "Unauthorized!")
	}
	return a, nil
}

// List is the admin listing with filters.
func List(c *fiber.Ctx) error {
	q := c.Locals("validatedList").(*membershipValidator.ListRequest)
	page, err := Service.ListMemberships(c.UserContext(), certification.MembershipFilter{
		Search:            q.Search,
		Status:            q.Status,
		CertificateStatus: q.CertificateStatus,
		IssuedOn:          q.IssuedOn,
		ExpiresOn:         q.ExpiresOn,
		PageQuery:         certification.PageQuery{Page: q.Page, PerPage: q.PerPage},
	})
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	return middleware.PageResponse(c, "Memberships fetched successfully!", page)
}

func Search(c *fiber.Ctx) error {
	q := c.Locals("validatedSearch").(*membershipValidator.SearchRequest)
	page, err := Service.SearchMemberships(c.UserContext(), q.Search, certification.PageQuery{Page: q.Page, PerPage: q.PerPage})
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	return middleware.PageResponse(c, "Memberships fetched successfully!", page)
}

// Mine lists the caller's memberships.
func Mine(c *fiber.Ctx) error {
	a, err := actor(c)
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	var pq certification.PageQuery
	if p, ok := c.Locals("validatedPage").(*validators.PageParams); ok {
		pq = certification.PageQuery{Page: p.Page, PerPage: p.PerPage}
	}
	page, err := Service.MyMemberships(c.UserContext(), a, pq)
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	return middleware.PageResponse(c, "Memberships fetched successfully!", page)
}

// ShowOwn returns one of the caller's paid memberships.
func ShowOwn(c *fiber.Ctx) error {
	a, err := actor(c)
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	m, err := Service.ShowOwnMembership(c.UserContext(), a, c.Locals("membershipID").(uint))
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Membership fetched successfully!", m)
}

func Show(c *fiber.Ctx) error {
	m, err := Service.ShowMembership(c.UserContext(), c.Locals("membershipID").(uint), certification.MembershipDetailIncludes...)
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Membership fetched successfully!", m)
}

// Verify is the public certificate check by serial.
func Verify(c *fiber.Ctx) error {
	m, err := Service.VerifyMembership(c.UserContext(), c.Locals("serial").(string))
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Membership verified successfully!", m)
}

func Update(c *fiber.Ctx) error {
	a, err := actor(c)
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	body := c.Locals("validatedUpdate").(*membershipValidator.UpdateRequest)
	m, err := Service.UpdateMembership(c.UserContext(), a, c.Locals("membershipID").(uint), certification.MembershipPatch{
		FullName:          body.FullName,
		CertificateStatus: body.CertificateStatus,
	})
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Membership updated successfully!", m)
}

// MarkPaid activates a membership.
func MarkPaid(c *fiber.Ctx) error {
	a, err := actor(c)
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	body := c.Locals("validatedPayment").(*membershipValidator.MarkPaidRequest)
	m, err := Service.MarkPaid(c.UserContext(), a, c.Locals("membershipID").(uint), body.PaymentReference)
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Membership activated successfully!", m)
}

func Delete(c *fiber.Ctx) error {
	a, err := actor(c)
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	if err := Service.DeleteMembership(c.UserContext(), a, c.Locals("membershipID").(uint)); err != nil {
		return middleware.ErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Membership deleted successfully!", nil)
}
