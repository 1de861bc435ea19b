package service_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/erazemk/zaloga/internal/apperr"
	"github.com/erazemk/zaloga/internal/model"
	"github.com/erazemk/zaloga/internal/service"
)

var _ = Describe("Requests", func() {
	var (
		f      *fixture
		holder *model.User
		user   *model.User
	)

	BeforeEach(func() {
		f = newFixture()
		holder = f.holderOf("hana@example.com", "INV-1")
		user = f.approvedUser("uma@example.com")

		_, err := f.svc.AddItem(f.ctx, holder, service.NewItem{Name: "Multimeter", Code: "X1", Quantity: 5})
		Expect(err).NotTo(HaveOccurred())
	})

	Describe("CreateRequest", func() {
		It("defaults the quantity to one", func() {
			req, err := f.svc.CreateRequest(f.ctx, user, "INV-1", "X1", 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(req.Quantity).To(Equal(1))
			Expect(req.Status).To(Equal(model.RequestPending))
		})

		It("checks the inventory, the item and the stock", func() {
			_, err := f.svc.CreateRequest(f.ctx, user, "NOPE", "X1", 1)
			Expect(err).To(haveKind(apperr.KindNotFound))

			_, err = f.svc.CreateRequest(f.ctx, user, "INV-1", "NOPE", 1)
			Expect(err).To(haveKind(apperr.KindNotFound))

			_, err = f.svc.CreateRequest(f.ctx, user, "INV-1", "X1", 6)
			Expect(err).To(haveKind(apperr.KindInsufficientQuantity))

			_, err = f.svc.CreateRequest(f.ctx, user, "INV-1", "X1", -2)
			Expect(err).To(haveKind(apperr.KindValidation))
		})

		It("does not reserve stock", func() {
			_, err := f.svc.CreateRequest(f.ctx, user, "INV-1", "X1", 4)
			Expect(err).NotTo(HaveOccurred())
			Expect(f.stock("INV-1", "X1")).To(Equal(5))
		})
	})

	Describe("ActOnRequest", func() {
		It("issues: stock goes from 5 to 3 and issuedAt is set", func() {
			req, err := f.svc.CreateRequest(f.ctx, user, "INV-1", "X1", 2)
			Expect(err).NotTo(HaveOccurred())

			holderReqs, err := f.svc.HolderRequests(f.ctx, holder)
			Expect(err).NotTo(HaveOccurred())
			Expect(holderReqs).To(HaveLen(1))

			issued, err := f.svc.ActOnRequest(f.ctx, holder, req.ID, "issued")
			Expect(err).NotTo(HaveOccurred())
			Expect(issued.Status).To(Equal(model.RequestIssued))
			Expect(issued.IssuedAt).NotTo(BeNil())
			Expect(issued.RejectedAt).To(BeNil())
			Expect(issued.HandledBy).To(HaveValue(Equal(holder.ID)))
			Expect(f.stock("INV-1", "X1")).To(Equal(3))

			mine, err := f.svc.UserRequests(f.ctx, user)
			Expect(err).NotTo(HaveOccurred())
			Expect(mine).To(HaveLen(1))
			Expect(mine[0].Status).To(Equal(model.RequestIssued))
			Expect(mine[0].HandlerName).To(HaveValue(Equal(holder.Name)))

			Expect(f.logActions()).To(ContainElement(model.ActionItemIssued))
		})

		It("rejects: stock unchanged and rejectedAt is set", func() {
			req, err := f.svc.CreateRequest(f.ctx, user, "INV-1", "X1", 2)
			Expect(err).NotTo(HaveOccurred())

			rejected, err := f.svc.ActOnRequest(f.ctx, holder, req.ID, "rejected")
			Expect(err).NotTo(HaveOccurred())
			Expect(rejected.Status).To(Equal(model.RequestRejected))
			Expect(rejected.RejectedAt).NotTo(BeNil())
			Expect(rejected.IssuedAt).To(BeNil())
			Expect(f.stock("INV-1", "X1")).To(Equal(5))
			Expect(f.logActions()).To(ContainElement(model.ActionRequestRejected))
		})

		It("refuses to act twice without touching stock", func() {
			req, err := f.svc.CreateRequest(f.ctx, user, "INV-1", "X1", 2)
			Expect(err).NotTo(HaveOccurred())

			_, err = f.svc.ActOnRequest(f.ctx, holder, req.ID, "issued")
			Expect(err).NotTo(HaveOccurred())

			for _, action := range []string{"issued", "rejected"} {
				_, err = f.svc.ActOnRequest(f.ctx, holder, req.ID, action)
				Expect(err).To(haveKind(apperr.KindConflict))
			}
			Expect(f.stock("INV-1", "X1")).To(Equal(3))

			mine, err := f.svc.UserRequests(f.ctx, user)
			Expect(err).NotTo(HaveOccurred())
			Expect(mine[0].Status).To(Equal(model.RequestIssued))
			Expect(mine[0].RejectedAt).To(BeNil())
		})

		It("fails with insufficient quantity and leaves everything unchanged", func() {
			first, err := f.svc.CreateRequest(f.ctx, user, "INV-1", "X1", 4)
			Expect(err).NotTo(HaveOccurred())
			second, err := f.svc.CreateRequest(f.ctx, user, "INV-1", "X1", 3)
			Expect(err).NotTo(HaveOccurred())

			_, err = f.svc.ActOnRequest(f.ctx, holder, first.ID, "issued")
			Expect(err).NotTo(HaveOccurred())

			_, err = f.svc.ActOnRequest(f.ctx, holder, second.ID, "issued")
			Expect(err).To(haveKind(apperr.KindInsufficientQuantity))
			Expect(f.stock("INV-1", "X1")).To(Equal(1))

			reqs, err := f.svc.ListRequests(f.ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(reqs).To(HaveLen(2))
			Expect(reqs[0].ID).To(Equal(second.ID))
			Expect(reqs[0].Status).To(Equal(model.RequestPending))
		})

		It("validates the action and the request", func() {
			req, err := f.svc.CreateRequest(f.ctx, user, "INV-1", "X1", 1)
			Expect(err).NotTo(HaveOccurred())

			_, err = f.svc.ActOnRequest(f.ctx, holder, req.ID, "approved")
			Expect(err).To(haveKind(apperr.KindValidation))

			_, err = f.svc.ActOnRequest(f.ctx, holder, 9999, "issued")
			Expect(err).To(haveKind(apperr.KindNotFound))
		})

		It("only lets the inventory's holder or an admin act", func() {
			other := f.holderOf("other@example.com", "INV-2")
			req, err := f.svc.CreateRequest(f.ctx, user, "INV-1", "X1", 1)
			Expect(err).NotTo(HaveOccurred())

			_, err = f.svc.ActOnRequest(f.ctx, other, req.ID, "issued")
			Expect(err).To(haveKind(apperr.KindForbidden))

			_, err = f.svc.ActOnRequest(f.ctx, user, req.ID, "issued")
			Expect(err).To(haveKind(apperr.KindForbidden))

			_, err = f.svc.ActOnRequest(f.ctx, f.admin, req.ID, "issued")
			Expect(err).NotTo(HaveOccurred())
			Expect(f.stock("INV-1", "X1")).To(Equal(4))
		})

		It("reports an item removed after the request was filed", func() {
			req, err := f.svc.CreateRequest(f.ctx, user, "INV-1", "X1", 1)
			Expect(err).NotTo(HaveOccurred())
			Expect(f.svc.DeleteItem(f.ctx, holder, "X1")).To(Succeed())

			_, err = f.svc.ActOnRequest(f.ctx, holder, req.ID, "issued")
			Expect(err).To(haveKind(apperr.KindNotFound))
		})
	})

	Describe("Stats", func() {
		It("counts users, inventories, items and recent requests", func() {
			_, err := f.svc.CreateRequest(f.ctx, user, "INV-1", "X1", 1)
			Expect(err).NotTo(HaveOccurred())
			f.register("Pending", "pending@example.com", model.RoleUser)

			s, err := f.svc.Stats(f.ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(*s).To(Equal(model.Stats{
				TotalUsers:        4,
				PendingApprovals:  1,
				ActiveInventories: 1,
				TotalItems:        1,
				RecentRequests:    1,
			}))
		})
	})
})
