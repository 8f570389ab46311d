package cmd

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/jmfitness/studio-management/internal"
	"github.com/jmfitness/studio-management/internal/auth"
	"github.com/jmfitness/studio-management/internal/core/database"
	employeeDatamodel "github.com/jmfitness/studio-management/internal/core/datamodel/employee"
	studentDatamodel "github.com/jmfitness/studio-management/internal/core/datamodel/student"
	"github.com/jmfitness/studio-management/internal/user"
	userPostgres "github.com/jmfitness/studio-management/internal/user/postgres"
	"github.com/jmfitness/studio-management/pkg/logger"
)

var (
	seedPassword string
	seedDemo     bool
)

type seedAccount struct {
	role     auth.Role
	personal user.PersonalDTO
	seed     func(ctx context.Context, db *gorm.DB, userID string) error
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with sample data",
	Long:  `Create the first administrator and, with --demo, one account of every role for development.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := setup()
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}
		lg := logger.LoggerWrapper()

		db, err := initDB(cfg.Database)
		if err != nil {
			log.Fatalf("failed to init db: %v", err)
		}
		defer db.Close()

		gdb, err := database.OpenGorm(db.DB, lg)
		if err != nil {
			log.Fatalf("failed to init gorm: %v", err)
		}

		hash, err := auth.HashPassword(seedPassword, cfg.Security.BCryptCost)
		if err != nil {
			log.Fatalf("failed to hash password: %v", err)
		}

		accounts := []seedAccount{adminSeed()}
		if seedDemo {
			accounts = append(accounts, demoSeeds()...)
		}

		ctx := context.Background()
		uow := database.NewUnitOfWork(gdb)
		registrar := user.NewRegistrar(userPostgres.NewUserRepository(gdb))

		for _, acc := range accounts {
			err := uow.WithTransaction(ctx, func(ctx context.Context) error {
				id, err := registrar.Register(ctx, user.Account{Role: acc.role, Personal: acc.personal, PasswordHash: &hash})
				if err != nil {
					return err
				}
				if acc.seed != nil {
					return acc.seed(ctx, gdb, id)
				}
				return nil
			})
			if appErr, ok := internal.IsAppError(err); ok && appErr.Code == internal.ErrCodeDuplicateUser {
				fmt.Printf("%s already exists, skipping\n", acc.personal.Email)
				continue
			}
			if err != nil {
				log.Fatalf("failed to seed %s: %v", acc.personal.Email, err)
			}
			fmt.Printf("Seeded %s: %s\n", acc.role, acc.personal.Email)
		}
	},
}

func adminSeed() seedAccount {
	return seedAccount{
		role: auth.RoleAdmin,
		personal: user.PersonalDTO{
			Name: "Administrador JM", CPF: "00000000191", Email: "admin@jmfitness.com",
			Telephone: "11999990000", Address: "Rua do Estúdio, 100 - São Paulo", BornDate: "1985-01-15", Sex: "feminino",
		},
	}
}

func demoSeeds() []seedAccount {
	today := time.Now().UTC().Truncate(24 * time.Hour)

	staff := func(position, shift, start, end string, salary int64) func(context.Context, *gorm.DB, string) error {
		return func(ctx context.Context, db *gorm.DB, userID string) error {
			return database.Conn(ctx, db).Create(&employeeDatamodel.Employee{
				UserID: userID, Position: position, Shift: shift,
				ShiftStartTime: start, ShiftEndTime: end,
				SalaryInCents: salary, HireDate: today,
			}).Error
		}
	}

	return []seedAccount{
		{
			role: auth.RoleFuncionario,
			personal: user.PersonalDTO{
				Name: "Carla Recepção", CPF: "00000000272", Email: "recepcao@jmfitness.com",
				Telephone: "11999990001", Address: "Rua das Flores, 200 - São Paulo", BornDate: "1992-06-03", Sex: "feminino",
			},
			seed: staff("Recepcionista", "manha", "06:00", "14:00", 250000),
		},
		{
			role: auth.RoleProfessor,
			personal: user.PersonalDTO{
				Name: "Diego Treinador", CPF: "00000000353", Email: "professor@jmfitness.com",
				Telephone: "11999990002", Address: "Avenida Central, 300 - São Paulo", BornDate: "1990-11-20", Sex: "masculino",
			},
			seed: staff("Professor", "tarde", "14:00", "22:00", 350000),
		},
		{
			role: auth.RoleAluno,
			personal: user.PersonalDTO{
				Name: "Ana Aluna", CPF: "00000000434", Email: "aluna@jmfitness.com",
				Telephone: "11999990003", Address: "Rua dos Alunos, 400 - São Paulo", BornDate: "2000-04-10", Sex: "feminino",
			},
			seed: func(ctx context.Context, db *gorm.DB, userID string) error {
				conn := database.Conn(ctx, db)
				if err := conn.Create(&studentDatamodel.Financial{
					UserID: userID, MonthlyFeeValueInCents: 15000, PaymentMethod: "pix", DueDate: 10,
				}).Error; err != nil {
					return err
				}
				return conn.Create(&studentDatamodel.HealthMetrics{UserID: userID}).Error
			},
		},
	}
}

func init() {
	seedCmd.Flags().StringVar(&seedPassword, "password", "jmfitness123", "password of every seeded account")
	seedCmd.Flags().BoolVar(&seedDemo, "demo", false, "also create a funcionario, a professor and a student")
}
