package service_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/erazemk/zaloga/internal/apperr"
	"github.com/erazemk/zaloga/internal/model"
	"github.com/erazemk/zaloga/internal/service"
)

var _ = Describe("Accounts", func() {
	var f *fixture

	BeforeEach(func() {
		f = newFixture()
	})

	Describe("Register", func() {
		It("creates pending users and holders", func() {
			u := f.register("Uma", "uma@example.com", model.RoleUser)
			Expect(u.Status).To(Equal(model.StatusPending))
			Expect(u.Role).To(Equal(model.RoleUser))

			h := f.register("Hana", "hana@example.com", model.RoleHolder)
			Expect(h.Status).To(Equal(model.StatusPending))
		})

		It("defaults the role to user", func() {
			u, err := f.svc.Register(f.ctx, service.Registration{
				Name: "Uma", Email: "uma@example.com", Password: testPassword,
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(u.Role).To(Equal(model.RoleUser))
		})

		It("starts admins approved and audits them", func() {
			Expect(f.admin.Status).To(Equal(model.StatusApproved))
			Expect(f.logActions()).To(ContainElement(model.ActionAdminRegistered))
		})

		It("refuses admin registration without the secret", func() {
			_, err := f.svc.Register(f.ctx, service.Registration{
				Name: "Eve", Email: "eve@example.com", Password: testPassword,
				Role: "admin", AdminSecret: "guess",
			})
			Expect(err).To(haveKind(apperr.KindForbidden))
		})

		It("rejects a duplicate email", func() {
			f.register("Uma", "uma@example.com", model.RoleUser)
			_, err := f.svc.Register(f.ctx, service.Registration{
				Name: "Other", Email: "UMA@example.com", Password: testPassword,
			})
			Expect(err).To(haveKind(apperr.KindConflict))
		})

		DescribeTable("validation",
			func(in service.Registration) {
				_, err := f.svc.Register(f.ctx, in)
				Expect(err).To(haveKind(apperr.KindValidation))
			},
			Entry("missing name", service.Registration{Email: "a@example.com", Password: testPassword}),
			Entry("missing password", service.Registration{Name: "A", Email: "a@example.com"}),
			Entry("malformed email", service.Registration{Name: "A", Email: "not-an-email", Password: testPassword}),
			Entry("short password", service.Registration{Name: "A", Email: "a@example.com", Password: "short"}),
			Entry("unknown role", service.Registration{Name: "A", Email: "a@example.com", Password: testPassword, Role: "root"}),
		)
	})

	Describe("RegisterAdmin", func() {
		It("requires the configured secret", func() {
			_, err := f.svc.RegisterAdmin(f.ctx, "Eve", "eve@example.com", testPassword, "wrong")
			Expect(err).To(haveKind(apperr.KindForbidden))

			a, err := f.svc.RegisterAdmin(f.ctx, "Ada", "ada@example.com", testPassword, testAdminSecret)
			Expect(err).NotTo(HaveOccurred())
			Expect(a.Role).To(Equal(model.RoleAdmin))
			Expect(a.Status).To(Equal(model.StatusApproved))
		})
	})

	Describe("Login and Authenticate", func() {
		It("refuses unapproved accounts", func() {
			f.register("Uma", "uma@example.com", model.RoleUser)
			_, err := f.svc.Login(f.ctx, "uma@example.com", testPassword)
			Expect(err).To(haveKind(apperr.KindForbidden))
		})

		It("refuses bad credentials", func() {
			_, err := f.svc.Login(f.ctx, "admin@example.com", "wrong-password")
			Expect(err).To(haveKind(apperr.KindUnauthorized))

			_, err = f.svc.Login(f.ctx, "nobody@example.com", testPassword)
			Expect(err).To(haveKind(apperr.KindUnauthorized))
		})

		It("issues a token that authenticates the user", func() {
			res, err := f.svc.Login(f.ctx, "admin@example.com", testPassword)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Token).NotTo(BeEmpty())
			Expect(res.User.ID).To(Equal(f.admin.ID))

			u, err := f.svc.Authenticate(f.ctx, res.Token)
			Expect(err).NotTo(HaveOccurred())
			Expect(u.Email).To(Equal("admin@example.com"))
		})

		It("rejects missing and forged tokens", func() {
			_, err := f.svc.Authenticate(f.ctx, "")
			Expect(err).To(haveKind(apperr.KindUnauthorized))

			_, err = f.svc.Authenticate(f.ctx, "abc.def.ghi")
			Expect(err).To(haveKind(apperr.KindUnauthorized))
		})
	})

	Describe("Authorize", func() {
		It("allows listed roles only", func() {
			Expect(service.Authorize(f.admin, model.RoleAdmin)).To(Succeed())
			Expect(service.Authorize(f.admin, model.RoleHolder, model.RoleUser)).To(haveKind(apperr.KindForbidden))
			Expect(service.Authorize(nil, model.RoleAdmin)).To(haveKind(apperr.KindUnauthorized))
		})

		It("never allows an unknown role", func() {
			odd := &model.User{Role: model.Role("superuser")}
			Expect(service.Authorize(odd, model.RoleAdmin, model.RoleHolder, model.RoleUser)).To(haveKind(apperr.KindForbidden))
		})
	})

	Describe("Approve", func() {
		It("moves pending users to approved or rejected exactly once", func() {
			u := f.register("Uma", "uma@example.com", model.RoleUser)

			approved, err := f.svc.Approve(f.ctx, f.admin, u.ID, "approved", "")
			Expect(err).NotTo(HaveOccurred())
			Expect(approved.Status).To(Equal(model.StatusApproved))

			_, err = f.svc.Approve(f.ctx, f.admin, u.ID, "rejected", "")
			Expect(err).To(haveKind(apperr.KindConflict))

			pending, err := f.svc.ListPending(f.ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(pending).To(BeEmpty())
		})

		It("records the decision in the audit log", func() {
			u := f.register("Uma", "uma@example.com", model.RoleUser)
			_, err := f.svc.Approve(f.ctx, f.admin, u.ID, "rejected", "")
			Expect(err).NotTo(HaveOccurred())

			logs, err := f.svc.Logs(f.ctx, 1)
			Expect(err).NotTo(HaveOccurred())
			Expect(logs).To(HaveLen(1))
			Expect(logs[0].Action).To(Equal(model.ActionUserRejected))
			Expect(*logs[0].UserID).To(Equal(u.ID))
			Expect(*logs[0].HandledBy).To(Equal(f.admin.ID))
		})

		It("validates the action and the target", func() {
			u := f.register("Uma", "uma@example.com", model.RoleUser)

			_, err := f.svc.Approve(f.ctx, f.admin, u.ID, "maybe", "")
			Expect(err).To(haveKind(apperr.KindValidation))

			_, err = f.svc.Approve(f.ctx, f.admin, 9999, "approved", "")
			Expect(err).To(haveKind(apperr.KindNotFound))
		})

		It("creates exactly one inventory for a fresh inventoryId", func() {
			h := f.holderOf("hana@example.com", "INV-1")
			Expect(h.InventoryID).To(HaveValue(Equal("INV-1")))
			Expect(f.countInventories("INV-1")).To(Equal(1))

			inv, err := f.svc.HolderInventory(f.ctx, h)
			Expect(err).NotTo(HaveOccurred())
			Expect(inv.InventoryID).To(Equal("INV-1"))
		})

		It("rebinds a reused inventoryId to the latest holder", func() {
			first := f.holderOf("first@example.com", "INV-1")
			second := f.holderOf("second@example.com", "INV-1")

			Expect(f.countInventories("INV-1")).To(Equal(1))

			inv, err := f.svc.GetInventory(f.ctx, "INV-1")
			Expect(err).NotTo(HaveOccurred())
			Expect(inv.HolderID).To(HaveValue(Equal(second.ID)))

			_, err = f.svc.HolderInventory(f.ctx, first)
			Expect(err).To(haveKind(apperr.KindNotFound))

			res, err := f.svc.Login(f.ctx, "first@example.com", testPassword)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.User.InventoryID).To(BeNil())
		})

		It("ignores inventoryId for non-holders", func() {
			u := f.register("Uma", "uma@example.com", model.RoleUser)
			u, err := f.svc.Approve(f.ctx, f.admin, u.ID, "approved", "INV-9")
			Expect(err).NotTo(HaveOccurred())
			Expect(u.InventoryID).To(BeNil())
			Expect(f.countInventories("INV-9")).To(Equal(0))
		})
	})

	Describe("BootstrapAdmin", func() {
		It("creates a first admin with a usable password", func() {
			svc := newService()

			password, created, err := svc.BootstrapAdmin(f.ctx, "Root", "root@example.com")
			Expect(err).NotTo(HaveOccurred())
			Expect(created).To(BeTrue())
			Expect(password).To(HaveLen(16))

			res, err := svc.Login(f.ctx, "root@example.com", password)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.User.Role).To(Equal(model.RoleAdmin))
		})

		It("does nothing when an admin exists", func() {
			_, created, err := f.svc.BootstrapAdmin(f.ctx, "Root", "root@example.com")
			Expect(err).NotTo(HaveOccurred())
			Expect(created).To(BeFalse())
		})
	})
})
