package employee_test

import (
	"context"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/jmfitness/studio-management/internal"
	"github.com/jmfitness/studio-management/internal/auth"
	"github.com/jmfitness/studio-management/internal/core/database"
	"github.com/jmfitness/studio-management/internal/core/database/dbtest"
	employeeDatamodel "github.com/jmfitness/studio-management/internal/core/datamodel/employee"
	userDatamodel "github.com/jmfitness/studio-management/internal/core/datamodel/user"
	"github.com/jmfitness/studio-management/internal/employee"
	employeePostgres "github.com/jmfitness/studio-management/internal/employee/postgres"
	"github.com/jmfitness/studio-management/internal/user"
	userPostgres "github.com/jmfitness/studio-management/internal/user/postgres"
)

var today = time.Date(2025, time.March, 5, 12, 0, 0, 0, time.UTC)

func employeeDTO() employee.CreateEmployeeDTO {
	return employee.CreateEmployeeDTO{
		PersonalDTO: user.PersonalDTO{
			Name:      "João Recepção",
			CPF:       "123.456.789-01",
			Email:     "joao@jmfitness.com",
			Telephone: "11977776666",
			Address:   "Rua Augusta, 500 - São Paulo",
			BornDate:  "1992-04-10",
			Sex:       "masculino",
		},
		Role:           "funcionario",
		Password:       "segredo1",
		Position:       "Recepcionista",
		Shift:          "Manhã",
		ShiftStartTime: "06:00",
		ShiftEndTime:   "14:00",
		SalaryInCents:  500000,
		HireDate:       "2024-01-15",
	}
}

func newService(db *gorm.DB) *employee.Service {
	registrar := user.NewRegistrar(userPostgres.NewUserRepository(db))
	return employee.NewService(employeePostgres.NewEmployeeRepository(db), registrar, database.NewUnitOfWork(db), bcrypt.MinCost).
		WithClock(func() time.Time { return today })
}

func count(db *gorm.DB, model interface{}) int64 {
	var n int64
	Expect(db.Model(model).Count(&n).Error).To(Succeed())
	return n
}

var _ = Describe("Employee Service", func() {
	var (
		db      *gorm.DB
		service *employee.Service
		ctx     context.Context
		admin   *auth.Identity
	)

	BeforeEach(func() {
		var err error
		db, err = dbtest.Open()
		Expect(err).NotTo(HaveOccurred())
		service = newService(db)
		ctx = context.Background()

		root := &userDatamodel.User{Name: "Root", UserRole: string(auth.RoleAdmin), IsActive: true}
		Expect(db.Create(root).Error).To(Succeed())
		admin = &auth.Identity{ID: root.ID, Role: auth.RoleAdmin}
	})

	Describe("Create", func() {
		It("writes the user, personal data and employee rows", func() {
			created, err := service.Create(ctx, admin, employeeDTO())

			Expect(err).NotTo(HaveOccurred())
			Expect(created.UserID).NotTo(BeEmpty())
			Expect(created.EmployeeID).NotTo(BeEmpty())

			var p userDatamodel.PersonalData
			Expect(db.Where("user_id = ?", created.UserID).Take(&p).Error).To(Succeed())
			Expect(p.CPF).To(Equal("12345678901"))

			var e employeeDatamodel.Employee
			Expect(db.Where("id = ?", created.EmployeeID).Take(&e).Error).To(Succeed())
			Expect(e.UserID).To(Equal(created.UserID))
			Expect(e.SalaryInCents).To(Equal(int64(500000)))
		})

		It("rolls back the user and personal data when the employee insert fails", func() {
			Expect(db.Migrator().DropTable(&employeeDatamodel.Employee{})).To(Succeed())

			_, err := service.Create(ctx, admin, employeeDTO())

			Expect(err).To(HaveOccurred())
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.StatusCode).To(Equal(500))
			Expect(count(db, &userDatamodel.User{})).To(Equal(int64(1)))
			Expect(count(db, &userDatamodel.PersonalData{})).To(Equal(int64(0)))
		})

		It("refuses a duplicate CPF without inserting", func() {
			_, err := service.Create(ctx, admin, employeeDTO())
			Expect(err).NotTo(HaveOccurred())

			dto := employeeDTO()
			dto.Email = "outro@jmfitness.com"
			_, err = service.Create(ctx, admin, dto)

			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.StatusCode).To(Equal(409))
			Expect(appErr.FieldErrors()).To(HaveKey("cpf"))
			Expect(count(db, &employeeDatamodel.Employee{})).To(Equal(int64(1)))
		})

		It("only lets admins register staff", func() {
			staff := &auth.Identity{ID: "staff-id", Role: auth.RoleFuncionario}

			_, err := service.Create(ctx, staff, employeeDTO())

			Expect(errors.Is(err, internal.ErrPermissionDenied)).To(BeTrue())
		})

		It("rejects roles other than funcionario and professor", func() {
			dto := employeeDTO()
			dto.Role = "admin"

			_, err := service.Create(ctx, admin, dto)

			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.FieldErrors()).To(HaveKey("role"))
		})

		It("rejects a minor", func() {
			dto := employeeDTO()
			dto.BornDate = "2010-01-01"

			_, err := service.Create(ctx, admin, dto)

			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.FieldErrors()).To(HaveKeyWithValue("bornDate", []string{"Idade deve estar entre 18 e 100 anos"}))
		})
	})

	Describe("List, SoftDelete and Restore", func() {
		var created *employee.Created

		BeforeEach(func() {
			var err error
			created, err = service.Create(ctx, admin, employeeDTO())
			Expect(err).NotTo(HaveOccurred())
		})

		It("formats the salary", func() {
			list, err := service.List(ctx, admin, false)

			Expect(err).NotTo(HaveOccurred())
			Expect(list).To(HaveLen(1))
			Expect(list[0].SalaryFormatted).To(Equal("R$ 5.000,00"))
			Expect(list[0].EmployeeID).To(Equal(created.EmployeeID))
			Expect(list[0].BornDate).To(Equal("1992-04-10"))
		})

		It("hides deactivated employees until they are restored", func() {
			Expect(service.SoftDelete(ctx, admin, created.EmployeeID)).To(Succeed())

			list, err := service.List(ctx, admin, false)
			Expect(err).NotTo(HaveOccurred())
			Expect(list).To(BeEmpty())

			all, err := service.List(ctx, admin, true)
			Expect(err).NotTo(HaveOccurred())
			Expect(all).To(HaveLen(1))
			Expect(all[0].DeletedAt).NotTo(BeNil())

			var u userDatamodel.User
			Expect(db.Where("id = ?", created.UserID).Take(&u).Error).To(Succeed())
			Expect(u.DeletedAt).NotTo(BeNil())

			Expect(service.Restore(ctx, admin, created.EmployeeID)).To(Succeed())

			list, err = service.List(ctx, admin, false)
			Expect(err).NotTo(HaveOccurred())
			Expect(list).To(HaveLen(1))
		})

		It("is restricted to admins", func() {
			staff := &auth.Identity{ID: created.UserID, Role: auth.RoleFuncionario}

			_, err := service.List(ctx, staff, false)
			Expect(errors.Is(err, internal.ErrPermissionDenied)).To(BeTrue())

			err = service.SoftDelete(ctx, staff, created.EmployeeID)
			Expect(errors.Is(err, internal.ErrPermissionDenied)).To(BeTrue())
		})

		It("returns not found for an unknown employee", func() {
			err := service.SoftDelete(ctx, admin, "missing")

			Expect(errors.Is(err, internal.ErrEmployeeNotFound)).To(BeTrue())
		})
	})

	Describe("Update", func() {
		var created *employee.Created

		BeforeEach(func() {
			var err error
			created, err = service.Create(ctx, admin, employeeDTO())
			Expect(err).NotTo(HaveOccurred())
		})

		It("records one salary history row when the salary changes", func() {
			salary := int64(550000)
			err := service.Update(ctx, admin, created.EmployeeID, employee.UpdateEmployeeDTO{
				SalaryInCents: &salary,
				CurrentUserID: &admin.ID,
			})
			Expect(err).NotTo(HaveOccurred())

			var rows []employeeDatamodel.SalaryHistory
			Expect(db.Where("employee_id = ?", created.EmployeeID).Find(&rows).Error).To(Succeed())
			Expect(rows).To(HaveLen(1))
			Expect(rows[0].PreviousSalaryInCents).To(Equal(int64(500000)))
			Expect(rows[0].NewSalaryInCents).To(Equal(int64(550000)))
			Expect(rows[0].ChangedBy).To(Equal(admin.ID))
			Expect(rows[0].ChangeReason).To(Equal(employee.DefaultSalaryChangeReason))

			history, err := service.SalaryHistory(ctx, admin, created.EmployeeID)
			Expect(err).NotTo(HaveOccurred())
			Expect(history).To(HaveLen(1))
			Expect(history[0].ChangedByName).To(Equal("Root"))
			Expect(history[0].NewSalaryFormatted).To(Equal("R$ 5.500,00"))
			Expect(history[0].EffectiveDate).To(Equal("2025-03-05"))
		})

		It("writes no history when the salary is unchanged", func() {
			salary := int64(500000)
			position := "Coordenador"
			err := service.Update(ctx, admin, created.EmployeeID, employee.UpdateEmployeeDTO{
				SalaryInCents: &salary,
				Position:      &position,
			})
			Expect(err).NotTo(HaveOccurred())

			Expect(count(db, &employeeDatamodel.SalaryHistory{})).To(Equal(int64(0)))
			var e employeeDatamodel.Employee
			Expect(db.Where("id = ?", created.EmployeeID).Take(&e).Error).To(Succeed())
			Expect(e.Position).To(Equal("Coordenador"))
		})

		It("lets staff edit their own contact data but not their salary", func() {
			self := &auth.Identity{ID: created.UserID, Role: auth.RoleFuncionario}
			phone := "11955554444"
			Expect(service.Update(ctx, self, created.EmployeeID, employee.UpdateEmployeeDTO{Telephone: &phone})).To(Succeed())

			salary := int64(900000)
			err := service.Update(ctx, self, created.EmployeeID, employee.UpdateEmployeeDTO{SalaryInCents: &salary})
			Expect(errors.Is(err, internal.ErrPermissionDenied)).To(BeTrue())
		})

		It("rejects a currentUserId that is not the caller", func() {
			other := "someone-else"
			salary := int64(600000)

			err := service.Update(ctx, admin, created.EmployeeID, employee.UpdateEmployeeDTO{
				SalaryInCents: &salary,
				CurrentUserID: &other,
			})

			Expect(errors.Is(err, employee.ErrCurrentUserMismatch)).To(BeTrue())
			Expect(count(db, &employeeDatamodel.SalaryHistory{})).To(Equal(int64(0)))
		})

		It("rejects an e-mail already in use", func() {
			dto := employeeDTO()
			dto.CPF = "98765432100"
			dto.Email = "maria@jmfitness.com"
			_, err := service.Create(ctx, admin, dto)
			Expect(err).NotTo(HaveOccurred())

			email := "MARIA@jmfitness.com"
			err = service.Update(ctx, admin, created.EmployeeID, employee.UpdateEmployeeDTO{Email: &email})

			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.StatusCode).To(Equal(409))
			Expect(appErr.FieldErrors()).To(HaveKey("email"))
		})

		It("rejects an empty payload", func() {
			err := service.Update(ctx, admin, created.EmployeeID, employee.UpdateEmployeeDTO{})

			Expect(errors.Is(err, employee.ErrNothingToUpdate)).To(BeTrue())
		})
	})
})
