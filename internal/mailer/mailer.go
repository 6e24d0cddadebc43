package mailer

import (
	"fmt"
	"log"
	"net/smtp"
	"os"
)

func smtpAddr() string {
	if addr := os.Getenv("SMTP_ADDR"); addr != "" {
		return addr
	}
	return "localhost:1025"
}

func fromAddr() string {
	if from := os.Getenv("SMTP_FROM"); from != "" {
		return from
	}
	return "noreply@smartcal.one"
}

// Send отправляет простое текстовое письмо через SMTP-релей.
func Send(to, subject, body string) error {
	from := fromAddr()
	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s\r\n", from, to, subject, body)
	return smtp.SendMail(smtpAddr(), nil, from, []string{to}, []byte(msg))
}

// SendAsync отправляет письмо в фоне. Доставка негарантированная: ошибка
// логируется и никогда не возвращается вызывающему — бронирование к этому
// моменту уже зафиксировано.
func SendAsync(to, subject, body string) {
	go func() {
		if err := Send(to, subject, body); err != nil {
			log.Printf("Не удалось отправить письмо на %s: %v", to, err)
		}
	}()
}
