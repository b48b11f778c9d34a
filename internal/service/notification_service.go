package service

import (
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
)

const (
	gmailSMTPHost   = "smtp.gmail.com"
	gmailSMTPPort   = 465
	smtpDialTimeout = 10 * time.Second
)

// Notifier delivers a single message to a single recipient. The boolean
// result reports delivery: senders treat false as "log and move on", never
// as a request failure.
type Notifier interface {
	Notify(recipientAddress string, subject string, messageBody string) bool
}

type NotificationService struct {
	SenderAddress  string
	SenderPassword string
}

func NewNotificationService(senderAddress string, senderPassword string) *NotificationService {
	return &NotificationService{
		SenderAddress:  senderAddress,
		SenderPassword: senderPassword,
	}
}

func (service *NotificationService) Notify(recipientAddress string, subject string, messageBody string) bool {
	sendError := service.dispatchEmail(recipientAddress, subject, messageBody)
	if sendError != nil {
		log.Warnf("Email notification to %s failed: %v", recipientAddress, sendError)
		return false
	}

	log.Infof("Email notification sent to %s", recipientAddress)
	return true
}

func (service *NotificationService) dispatchEmail(recipientAddress string, subject string, messageBody string) error {
	if service.SenderAddress == "" || service.SenderPassword == "" {
		return fmt.Errorf("email credentials are not configured")
	}

	smtpServerAddress := fmt.Sprintf("%s:%d", gmailSMTPHost, gmailSMTPPort)
	authentication := smtp.PlainAuth("", service.SenderAddress, service.SenderPassword, gmailSMTPHost)

	messageHeaders := []string{
		fmt.Sprintf("From: %s", service.SenderAddress),
		fmt.Sprintf("To: %s", recipientAddress),
		fmt.Sprintf("Subject: %s", subject),
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=\"utf-8\"",
		"",
	}
	fullMessage := strings.Join(messageHeaders, "\r\n") + "\r\n" + messageBody

	tlsConfiguration := &tls.Config{ServerName: gmailSMTPHost}
	dialer := &net.Dialer{Timeout: smtpDialTimeout}
	connection, connectionError := tls.DialWithDialer(dialer, "tcp", smtpServerAddress, tlsConfiguration)
	if connectionError != nil {
		return connectionError
	}
	defer connection.Close()

	smtpClient, smtpError := smtp.NewClient(connection, gmailSMTPHost)
	if smtpError != nil {
		return smtpError
	}
	defer smtpClient.Close()

	if authenticationError := smtpClient.Auth(authentication); authenticationError != nil {
		return authenticationError
	}

	if senderError := smtpClient.Mail(service.SenderAddress); senderError != nil {
		return senderError
	}

	if recipientError := smtpClient.Rcpt(recipientAddress); recipientError != nil {
		return recipientError
	}

	dataWriter, dataError := smtpClient.Data()
	if dataError != nil {
		return dataError
	}

	_, writeError := dataWriter.Write([]byte(fullMessage))
	if writeError != nil {
		return writeError
	}

	closeError := dataWriter.Close()
	if closeError != nil {
		return closeError
	}

	return smtpClient.Quit()
}
