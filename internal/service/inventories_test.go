package service_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/erazemk/zaloga/internal/apperr"
	"github.com/erazemk/zaloga/internal/model"
	"github.com/erazemk/zaloga/internal/service"
)

var _ = Describe("Inventories", func() {
	var (
		f      *fixture
		holder *model.User
	)

	BeforeEach(func() {
		f = newFixture()
		holder = f.holderOf("hana@example.com", "INV-1")
	})

	Describe("CreateInventory", func() {
		It("creates an empty unassigned inventory", func() {
			inv, err := f.svc.CreateInventory(f.ctx, f.admin, "INV-2")
			Expect(err).NotTo(HaveOccurred())
			Expect(inv.HolderID).To(BeNil())
			Expect(inv.Items).To(BeEmpty())
			Expect(f.logActions()).To(ContainElement(model.ActionInventoryCreated))
		})

		It("refuses duplicates and empty ids", func() {
			_, err := f.svc.CreateInventory(f.ctx, f.admin, "INV-1")
			Expect(err).To(haveKind(apperr.KindConflict))

			_, err = f.svc.CreateInventory(f.ctx, f.admin, "  ")
			Expect(err).To(haveKind(apperr.KindValidation))
		})
	})

	Describe("DeleteInventory", func() {
		It("removes the inventory and unbinds its holder", func() {
			Expect(f.svc.DeleteInventory(f.ctx, f.admin, "INV-1")).To(Succeed())

			_, err := f.svc.GetInventory(f.ctx, "INV-1")
			Expect(err).To(haveKind(apperr.KindNotFound))

			res, err := f.svc.Login(f.ctx, "hana@example.com", testPassword)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.User.InventoryID).To(BeNil())
			Expect(f.logActions()).To(ContainElement(model.ActionInventoryDeleted))
		})

		It("reports a missing inventory", func() {
			Expect(f.svc.DeleteInventory(f.ctx, f.admin, "NOPE")).To(haveKind(apperr.KindNotFound))
		})
	})

	Describe("listing", func() {
		It("returns summaries with holder names", func() {
			_, err := f.svc.CreateInventory(f.ctx, f.admin, "INV-2")
			Expect(err).NotTo(HaveOccurred())

			sums, err := f.svc.ListInventorySummaries(f.ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(sums).To(HaveLen(2))
			Expect(sums[0].InventoryID).To(Equal("INV-1"))
			Expect(sums[0].HolderName).To(HaveValue(Equal("Holder hana@example.com")))
			Expect(sums[1].HolderName).To(BeNil())
		})
	})

	Describe("items", func() {
		It("adds an item and retains exactly one on a duplicate code", func() {
			_, err := f.svc.AddItem(f.ctx, holder, service.NewItem{Name: "Multimeter", Code: "X1", Quantity: 5})
			Expect(err).NotTo(HaveOccurred())

			_, err = f.svc.AddItem(f.ctx, holder, service.NewItem{Name: "Other", Code: "X1", Quantity: 9})
			Expect(err).To(haveKind(apperr.KindConflict))

			inv, err := f.svc.HolderInventory(f.ctx, holder)
			Expect(err).NotTo(HaveOccurred())
			Expect(inv.Items).To(HaveLen(1))
			Expect(inv.Items[0].Name).To(Equal("Multimeter"))
			Expect(inv.Items[0].Quantity).To(Equal(5))
		})

		It("validates new items", func() {
			_, err := f.svc.AddItem(f.ctx, holder, service.NewItem{Code: "X1"})
			Expect(err).To(haveKind(apperr.KindValidation))

			_, err = f.svc.AddItem(f.ctx, holder, service.NewItem{Name: "A", Code: "X1", Quantity: -1})
			Expect(err).To(haveKind(apperr.KindValidation))
		})

		It("needs an inventory held by the caller", func() {
			other := f.holderOf("free@example.com", "")
			_, err := f.svc.AddItem(f.ctx, other, service.NewItem{Name: "A", Code: "X1"})
			Expect(err).To(haveKind(apperr.KindNotFound))
		})

		It("updates only the supplied fields", func() {
			_, err := f.svc.AddItem(f.ctx, holder, service.NewItem{
				Name: "Scope", Code: "S1", Quantity: 2, CalibrationInfo: "2026-01",
			})
			Expect(err).NotTo(HaveOccurred())

			qty := 7
			item, err := f.svc.UpdateItem(f.ctx, holder, "S1", service.ItemUpdate{
				ItemPatch: model.ItemPatch{Quantity: &qty},
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(item.Quantity).To(Equal(7))
			Expect(item.Name).To(Equal("Scope"))
			Expect(item.CalibrationInfo).To(Equal("2026-01"))

			neg := -3
			_, err = f.svc.UpdateItem(f.ctx, holder, "S1", service.ItemUpdate{
				ItemPatch: model.ItemPatch{Quantity: &neg},
			})
			Expect(err).To(haveKind(apperr.KindValidation))

			_, err = f.svc.UpdateItem(f.ctx, holder, "NOPE", service.ItemUpdate{
				ItemPatch: model.ItemPatch{Quantity: &qty},
			})
			Expect(err).To(haveKind(apperr.KindNotFound))
		})

		It("deletes items", func() {
			_, err := f.svc.AddItem(f.ctx, holder, service.NewItem{Name: "A", Code: "A1", Quantity: 1})
			Expect(err).NotTo(HaveOccurred())

			Expect(f.svc.DeleteItem(f.ctx, holder, "A1")).To(Succeed())
			Expect(f.svc.DeleteItem(f.ctx, holder, "A1")).To(haveKind(apperr.KindNotFound))
			Expect(f.logActions()).To(ContainElements(model.ActionItemAdded, model.ActionItemDeleted))
		})

		It("stores uploaded photos content-addressed", func() {
			item, err := f.svc.AddItem(f.ctx, holder, service.NewItem{
				Name: "Camera", Code: "C1", Quantity: 1, Image: pngBytes(20, 20),
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(item.Image).To(MatchRegexp(`^uploads/[0-9a-f]{64}\.jpg$`))

			_, err = f.svc.AddItem(f.ctx, holder, service.NewItem{
				Name: "Broken", Code: "C2", Quantity: 1, Image: []byte("not an image"),
			})
			Expect(err).To(haveKind(apperr.KindValidation))
		})

		It("keeps no photo when adding the item fails", func() {
			_, err := f.svc.AddItem(f.ctx, holder, service.NewItem{Name: "Camera", Code: "C1", Quantity: 1})
			Expect(err).NotTo(HaveOccurred())

			_, err = f.svc.AddItem(f.ctx, holder, service.NewItem{
				Name: "Camera", Code: "C1", Quantity: 1, Image: pngBytes(20, 20),
			})
			Expect(err).To(haveKind(apperr.KindConflict))
			Expect(f.storedImages()).To(Equal(0))

			_, err = f.svc.UpdateItem(f.ctx, holder, "NOPE", service.ItemUpdate{Image: pngBytes(20, 20)})
			Expect(err).To(haveKind(apperr.KindNotFound))
			Expect(f.storedImages()).To(Equal(0))

			stranger := f.register("Stranger", "stranger@example.com", model.RoleHolder)
			_, err = f.svc.AddItem(f.ctx, stranger, service.NewItem{
				Name: "Camera", Code: "C9", Quantity: 1, Image: pngBytes(20, 20),
			})
			Expect(err).To(haveKind(apperr.KindNotFound))
			Expect(f.storedImages()).To(Equal(0))
		})

		It("keeps a shared photo when a later upload of it fails", func() {
			first, err := f.svc.AddItem(f.ctx, holder, service.NewItem{
				Name: "Camera", Code: "C1", Quantity: 1, Image: pngBytes(20, 20),
			})
			Expect(err).NotTo(HaveOccurred())

			_, err = f.svc.AddItem(f.ctx, holder, service.NewItem{
				Name: "Camera", Code: "C1", Quantity: 1, Image: pngBytes(20, 20),
			})
			Expect(err).To(haveKind(apperr.KindConflict))
			Expect(f.storedImages()).To(Equal(1))
			Expect(first.Image).NotTo(BeEmpty())
		})
	})
})
