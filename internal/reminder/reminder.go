package reminder

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ErlanBelekov/taskboard/internal/email"
	"github.com/ErlanBelekov/taskboard/internal/metrics"
	"github.com/ErlanBelekov/taskboard/internal/repository"
	"github.com/robfig/cron/v3"
)

const (
	// dueWindow is how far ahead a task's due date may be for it to
	// count as due soon.
	dueWindow = 24 * time.Hour

	batchLimit = 500
)

// Job emails owners of tasks that are due soon. It runs on a cron
// expression validated at config load.
type Job struct {
	tasks  repository.TaskRepository
	sender email.Sender
	logger *slog.Logger
	cron   *cron.Cron
}

func NewJob(tasks repository.TaskRepository, sender email.Sender, logger *slog.Logger) *Job {
	return &Job{
		tasks:  tasks,
		sender: sender,
		logger: logger.With("component", "reminder"),
		cron:   cron.New(),
	}
}

// Start schedules the job and begins the cron runner.
func (j *Job) Start(spec string) error {
	_, err := j.cron.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		j.Run(ctx)
	})
	if err != nil {
		return fmt.Errorf("schedule reminder job: %w", err)
	}

	j.cron.Start()
	j.logger.Info("reminder job scheduled", "cron", spec)
	return nil
}

// Stop halts the cron runner and waits for an in-flight run to finish.
func (j *Job) Stop() {
	<-j.cron.Stop().Done()
}

// Run sends one reminder per due task. A failed send is logged and
// counted but does not stop the rest of the batch.
func (j *Job) Run(ctx context.Context) {
	due, err := j.tasks.DueSoon(ctx, dueWindow, batchLimit)
	if err != nil {
		j.logger.Error("load due tasks", "error", err)
		return
	}
	if len(due) == 0 {
		return
	}

	sent := 0
	for _, d := range due {
		if err := j.sender.Send(ctx, d.OwnerEmail, reminderSubject(d), reminderBody(d)); err != nil {
			j.logger.Error("send reminder", "task_id", d.Task.ID, "error", err)
			metrics.ReminderEmailsTotal.WithLabelValues("failure").Inc()
			continue
		}
		metrics.ReminderEmailsTotal.WithLabelValues("success").Inc()
		sent++
	}

	j.logger.Info("reminder run finished", "due", len(due), "sent", sent)
}

func reminderSubject(d repository.DueTask) string {
	return fmt.Sprintf("Reminder: %q is due soon", d.Task.Title)
}

func reminderBody(d repository.DueTask) string {
	due := "soon"
	if d.Task.DueDate != nil {
		due = d.Task.DueDate.Format("Mon, 2 Jan 2006 15:04 MST")
	}
	return fmt.Sprintf(
		"<p>Hi %s,</p><p>Your task <strong>%s</strong> is due %s.</p>",
		d.OwnerName, d.Task.Title, due,
	)
}
