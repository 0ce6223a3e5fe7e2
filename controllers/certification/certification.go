package certificationController

import (
	"sdssn/middleware"
	"sdssn/services/certification"
	"sdssn/validators"
	certificationValidator "sdssn/validators/certification"

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

func pageQuery(c *fiber.Ctx) certification.PageQuery {
	p, ok := c.Locals("validatedPage").(*validators.PageParams)
	if !ok {
		return certification.PageQuery{}
	}
	return certification.PageQuery{Page: p.Page, PerPage: p.PerPage}
}

// Submit creates a pending certification request for the caller.
func Submit(c *fiber.Ctx) error {
	a, err := actor(c)
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	reqData := c.Locals("validatedRequest").(*certificationValidator.SubmitRequest)

	in := certification.SubmitInput{
		CertificationID:        reqData.CertificationID,
		ReasonForCertification: reqData.ReasonForCertification,
	}
	if reqData.Credential != nil {
		f, err := reqData.Credential.Open()
		if err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Failed to read credential file!", nil)
		}
		defer f.Close()
		in.Credential = &certification.File{Name: reqData.Credential.Filename, Size: reqData.Credential.Size, Reader: f}
	}

	req, err := Service.Submit(c.UserContext(), a, in)
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Certification request submitted successfully!", req)
}

// List is the admin listing.
func List(c *fiber.Ctx) error {
	q := c.Locals("validatedList").(*certificationValidator.ListRequest)
	page, err := Service.ListRequests(c.UserContext(), certification.RequestFilter{
		Search:    q.Search,
		Status:    q.Status,
		Type:      q.Type,
		PageQuery: certification.PageQuery{Page: q.Page, PerPage: q.PerPage},
	})
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	return middleware.PageResponse(c, "Certification requests fetched successfully!", page)
}

// Mine lists the caller's own requests.
func Mine(c *fiber.Ctx) error {
	a, err := actor(c)
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	page, err := Service.MyRequests(c.UserContext(), a, pageQuery(c))
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	return middleware.PageResponse(c, "Certification requests fetched successfully!", page)
}

func Trashed(c *fiber.Ctx) error {
	page, err := Service.TrashedRequests(c.UserContext(), pageQuery(c))
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	return middleware.PageResponse(c, "Trashed certification requests fetched successfully!", page)
}

// SearchByUser returns a handler searching requests by the owner's name or email.
func SearchByUser(by string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		q := c.Locals("validatedSearch").(*certificationValidator.UserSearchRequest)
		page, err := Service.SearchRequestsByUser(c.UserContext(), by, q.Term,
			certification.PageQuery{Page: q.Page, PerPage: q.PerPage})
		if err != nil {
			return middleware.ErrorResponse(c, err)
		}
		return middleware.PageResponse(c, "Certification requests fetched successfully!", page)
	}
}

// Show returns one request. Non-admins only see their own.
func Show(c *fiber.Ctx) error {
	a, err := actor(c)
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	id := c.Locals("requestID").(uint)

	req, err := Service.ShowRequest(c.UserContext(), id, certification.RequestDetailIncludes...)
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	if !a.IsAdmin() && req.UserID != a.ID {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Certification request not found", nil)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Certification request fetched successfully!", req)
}

// UpdateStatus drives the state machine. The approve and reject shortcuts
// land here too.
func UpdateStatus(c *fiber.Ctx) error {
	a, err := actor(c)
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	id := c.Locals("requestID").(uint)
	body := c.Locals("validatedStatus").(*certificationValidator.StatusRequest)

	req, err := Service.UpdateStatus(c.UserContext(), a, id, certification.StatusInput{
		Status:         body.Status,
		ManagementNote: body.ManagementNote,
	})
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Certification request updated successfully!", req)
}

// Destroy soft-deletes a rejected request that has no membership.
func Destroy(c *fiber.Ctx) error {
	a, err := actor(c)
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	if err := Service.Destroy(c.UserContext(), a, c.Locals("requestID").(uint)); err != nil {
		return middleware.ErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Certification request deleted successfully!", nil)
}

// Delete rejects and trashes a request.
func Delete(c *fiber.Ctx) error {
	a, err := actor(c)
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	req, err := Service.Delete(c.UserContext(), a, c.Locals("requestID").(uint))
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Certification request moved to trash!", req)
}

func Restore(c *fiber.Ctx) error {
	a, err := actor(c)
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	req, err := Service.Restore(c.UserContext(), a, c.Locals("requestID").(uint))
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Certification request restored successfully!", req)
}

func ForceDelete(c *fiber.Ctx) error {
	a, err := actor(c)
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	if err := Service.ForceDelete(c.UserContext(), a, c.Locals("requestID").(uint)); err != nil {
		return middleware.ErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Certification request permanently deleted!", nil)
}
