package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/creditoya/dashboard-client/pkg/mailer"
)

func mailCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mail",
		Short: "Send emails to clients",
	}
	cmd.AddCommand(mailSendCmd())
	return cmd
}

func mailSendCmd() *cobra.Command {
	var (
		allClients  bool
		exclude     []string
		to          []string
		subject     string
		message     string
		attachments []string
		announce    bool
		title       string
		sender      string
	)

	send := &cobra.Command{
		Use:   "send",
		Short: "Send an email to the selected recipients",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, client, err := setup()
			if err != nil {
				return err
			}
			defer client.Close()

			dispatcher, err := mailer.New(mailer.Config{
				API:         client,
				Concurrency: cfg.Batch.MailConcurrency,
			})
			if err != nil {
				return err
			}

			if allClients {
				if err := dispatcher.EnableBulk(cmd.Context()); err != nil {
					return err
				}
				for _, id := range exclude {
					dispatcher.ExcludeClient(id)
				}
			}

			// --to takes "Name <email>" or a bare address.
			for _, recipient := range to {
				name, email := parseRecipient(recipient)
				if err := dispatcher.AddIndividualRecipient(name, email); err != nil {
					return fmt.Errorf("recipient %q: %s", recipient, err)
				}
			}

			dispatcher.SetSubject(subject)
			if announce {
				dispatcher.SetAnnouncementMode(true)
				dispatcher.SetAnnouncement(title, message)
				if sender != "" {
					dispatcher.SetSenderName(sender)
				}
			} else {
				dispatcher.SetMessage(message)
				for _, path := range attachments {
					data, err := os.ReadFile(path)
					if err != nil {
						return fmt.Errorf("read attachment: %w", err)
					}
					dispatcher.AddAttachment(filepath.Base(path), data)
				}
			}

			summary, err := dispatcher.Send(cmd.Context())
			if err != nil {
				return err
			}

			fmt.Printf("%d of %d emails sent\n", summary.Successful, summary.Total)
			if summary.Failed > 0 {
				fmt.Printf("Failed recipients: %s\n", strings.Join(summary.FailedEmails, ", "))
				return fmt.Errorf("%d emails failed", summary.Failed)
			}
			return nil
		},
	}

	send.Flags().BoolVar(&allClients, "all-clients", false, "send to every registered client")
	send.Flags().StringSliceVar(&exclude, "exclude", nil, "client IDs to exclude from --all-clients")
	send.Flags().StringSliceVar(&to, "to", nil, `individual recipient ("Name <email>" or bare address)`)
	send.Flags().StringVar(&subject, "subject", "", "email subject")
	send.Flags().StringVar(&message, "message", "", "email body")
	send.Flags().StringSliceVar(&attachments, "attach", nil, "file attachment path")
	send.Flags().BoolVar(&announce, "announce", false, "send as a structured announcement")
	send.Flags().StringVar(&title, "title", "", "announcement title")
	send.Flags().StringVar(&sender, "sender", "", "announcement sender name")
	return send
}

// parseRecipient splits "Name <email>" into its parts; a bare address uses
// its local part as the display name.
func parseRecipient(s string) (name, email string) {
	s = strings.TrimSpace(s)
	if open := strings.IndexByte(s, '<'); open >= 0 && strings.HasSuffix(s, ">") {
		name = strings.TrimSpace(s[:open])
		email = strings.TrimSpace(s[open+1 : len(s)-1])
		if name == "" {
			name = email
		}
		return name, email
	}
	if at := strings.IndexByte(s, '@'); at > 0 {
		return s[:at], s
	}
	return s, s
}
