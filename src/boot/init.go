package boot

import (
	"log"
	"rentalhub/src/db"
	"rentalhub/src/lib"
	"rentalhub/src/models"
	"rentalhub/src/types"
	"rentalhub/src/utils"
	"time"

	"github.com/go-co-op/gocron/v2"
	"gorm.io/gorm"
)

func InitDb() *gorm.DB {
	db := db.GetDb()

	err := db.AutoMigrate(
		&models.User{},
		&models.Category{},
		&models.Listing{},
		&models.ListingImage{},
		&models.ListingAddon{},
		&models.Reservation{},
		&models.Order{},
		&models.Claim{},
		&models.Report{},
		&models.MessageThread{},
		&models.Message{},
		&models.Favorite{},
		&models.Review{},
		&models.Feedback{},
		&models.Token{},
		&models.AuditTrail{},
		&models.JobTask{},
	)
	if err != nil {
		log.Fatalf("error migration: %s", err.Error())
	}

	return db
}

func InitScheduler() {
	sched, err := lib.GetScheduler()
	if err != nil {
		log.Println("An error has occurred. Check logs for info")
		return
	}
	go UpdateExpiredJobs()
	go RecoverQueuedJobs()
	// Hourly sweep for jobs whose in-memory schedule was lost, e.g. after a
	// gocron error at enqueue time.
	if _, err := lib.CreateCronJob(UpdateExpiredJobs, time.Hour); err != nil {
		log.Printf("Error scheduling job sweep: %s\n", err.Error())
	}
	sched.Start()
}

func StopScheduler() {
	sched, err := lib.GetScheduler()
	if err != nil {
		log.Println("Error retrieving Scheduler. Check logs for info")
		return
	}
	if err := sched.Shutdown(); err != nil {
		log.Println("An error has occurred while stopping Scheduler. Check logs for info")
	}
}

// RecoverQueuedJobs re-enqueues pending reservation expiries and order
// transitions that were scheduled before the last restart.
func RecoverQueuedJobs() error {
	sched, err := lib.GetScheduler()
	if err != nil {
		return err
	}
	db := db.GetDb()
	ss := db.Session(&gorm.Session{PrepareStmt: true})
	var jobTasks []models.JobTask
	today := time.Now()
	in3months := today.Add((24 * 30 * 3) * time.Hour)
	err = ss.
		Model(&models.JobTask{}).
		Where(&models.JobTask{Status: "pending", JobType: "OneTimeJobStartDateTime"}).
		Where("runs_at BETWEEN ? AND ?", today, in3months).
		Order("runs_at asc").
		Limit(100).
		Find(&jobTasks).
		Error
	if err != nil {
		log.Printf("Error retrieving jobs: %s\n", err.Error())
		return err
	}
	log.Printf("Found %d pending jobs", len(jobTasks))
	for _, jobTask := range jobTasks {
		task, ok := recoveredTask(jobTask)
		if !ok {
			log.Printf("Unknown payload for job [%s]. Skipping\n", jobTask.ID.String())
			continue
		}
		job, err := sched.NewJob(
			gocron.OneTimeJob(gocron.OneTimeJobStartDateTime(jobTask.RunsAt)),
			task,
		)
		if err != nil {
			log.Printf("Failed to schedule job [%s]. Skipping: %s\n", jobTask.ID.String(), err.Error())
			continue
		}
		log.Printf("Added job to scheduler: name=%s id=%s job=%s\n", jobTask.Name, jobTask.ID.String(), job.ID().String())
	}

	return nil
}

func recoveredTask(jobTask models.JobTask) (gocron.Task, bool) {
	jobId := jobTask.ID.String()
	// JSONB numbers come back as float64.
	id, ok := jobTask.Payload["id"].(float64)
	if !ok {
		return nil, false
	}
	switch jobTask.Payload["type"] {
	case "reservation_expire":
		return gocron.NewTask(func(reservationId uint) {
			utils.ExpirePendingReservation(reservationId)
			utils.MarkJobDone(jobId)
		}, uint(id)), true
	case "order_transition":
		from, _ := jobTask.Payload["from"].(string)
		to, _ := jobTask.Payload["to"].(string)
		if from == "" || to == "" {
			return nil, false
		}
		return gocron.NewTask(func(orderId uint) {
			utils.TransitionOrderStatus(orderId, types.OrderStatus(from), types.OrderStatus(to))
			utils.MarkJobDone(jobId)
		}, uint(id)), true
	default:
		return nil, false
	}
}

// UpdateExpiredJobs closes out work whose run time passed while the server was
// down. Reservation expiries still apply; order transitions are replayed so a
// rental that should already be active or completed catches up.
func UpdateExpiredJobs() {
	db := db.GetDb()
	var missed []models.JobTask
	if err := db.
		Model(&models.JobTask{}).
		Where("status", "pending").
		Where("runs_at < ?", time.Now()).
		Find(&missed).
		Error; err != nil {
		log.Printf("Error while processing expired jobs: %s\n", err.Error())
		return
	}
	for _, jobTask := range missed {
		id, ok := jobTask.Payload["id"].(float64)
		if !ok {
			continue
		}
		switch jobTask.Payload["type"] {
		case "reservation_expire":
			utils.ExpirePendingReservation(uint(id))
		case "order_transition":
			from, _ := jobTask.Payload["from"].(string)
			to, _ := jobTask.Payload["to"].(string)
			if from != "" && to != "" {
				utils.TransitionOrderStatus(uint(id), types.OrderStatus(from), types.OrderStatus(to))
			}
		}
	}
	if err := db.
		Transaction(func(tx *gorm.DB) error {
			return tx.Model(&models.JobTask{}).
				Where("status", "pending").
				Where("runs_at < ?", time.Now()).
				Update("status", "expired").Error
		}); err != nil {
		log.Printf("Error while processing expired jobs: %s\n", err.Error())
	}
}
