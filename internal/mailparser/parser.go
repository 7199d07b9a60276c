package mailparser

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/mail"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/korean"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/encoding/traditionalchinese"
	"golang.org/x/text/transform"
)

// Email 表示解析后的邮件内容。
// Header 保留原始头部，供上层读取 Message-ID 等字段。
type Email struct {
	Subject string
	Text    string
	HTML    string
	Header  mail.Header
}

// MessageID 返回去掉首尾空白的 Message-ID 头，缺失时为空串。
func (e *Email) MessageID() string {
	if e.Header == nil {
		return ""
	}
	return strings.TrimSpace(e.Header.Get("Message-Id"))
}

// Parse 解析原始邮件字节，提取主题与文本、HTML 正文。
// 附件部分会被跳过，正文只保留每种类型遇到的第一份。
func Parse(raw []byte) (*Email, error) {
	msg, err := mail.ReadMessage(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("parse mail: %w", err)
	}

	email := &Email{
		Subject: decodeHeader(msg.Header.Get("Subject")),
		Header:  msg.Header,
	}

	contentType := msg.Header.Get("Content-Type")
	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		// 没有 Content-Type 或解析失败，整体当作纯文本
		body, _ := io.ReadAll(msg.Body)
		email.Text = string(body)
		return email, nil
	}

	if strings.HasPrefix(mediaType, "multipart/") {
		boundary := params["boundary"]
		if boundary == "" {
			return nil, fmt.Errorf("multipart message without boundary")
		}

		mr := multipart.NewReader(msg.Body, boundary)
		if err := parseMultipart(mr, email); err != nil {
			return nil, fmt.Errorf("parse multipart: %w", err)
		}
	} else {
		body, err := decodeBody(msg.Body, msg.Header.Get("Content-Transfer-Encoding"), params["charset"])
		if err != nil {
			return nil, fmt.Errorf("decode body: %w", err)
		}

		if strings.HasPrefix(mediaType, "text/html") {
			email.HTML = body
		} else {
			email.Text = body
		}
	}

	return email, nil
}

// parseMultipart 递归解析多部分邮件，只收集文本与 HTML 正文。
func parseMultipart(mr *multipart.Reader, email *Email) error {
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}

		contentType := part.Header.Get("Content-Type")
		mediaType, params, err := mime.ParseMediaType(contentType)
		if err != nil {
			mediaType = "text/plain"
		}

		// 附件和内嵌资源不入库，跳过
		if disposition := part.Header.Get("Content-Disposition"); disposition != "" {
			dispType, _, _ := mime.ParseMediaType(disposition)
			if dispType == "attachment" || dispType == "inline" {
				io.Copy(io.Discard, part)
				continue
			}
		}

		// 嵌套 multipart
		if strings.HasPrefix(mediaType, "multipart/") {
			boundary := params["boundary"]
			if boundary != "" {
				nested := multipart.NewReader(part, boundary)
				if err := parseMultipart(nested, email); err != nil {
					return err
				}
			}
			continue
		}

		body, err := decodeBody(part, part.Header.Get("Content-Transfer-Encoding"), params["charset"])
		if err != nil {
			continue
		}

		if strings.HasPrefix(mediaType, "text/html") {
			if email.HTML == "" {
				email.HTML = body
			}
		} else if strings.HasPrefix(mediaType, "text/plain") {
			if email.Text == "" {
				email.Text = body
			}
		}
	}

	return nil
}

// decodeBody 根据传输编码与字符集解码邮件体。
func decodeBody(reader io.Reader, transferEncoding string, charset string) (string, error) {
	transferEncoding = strings.ToLower(strings.TrimSpace(transferEncoding))

	var decoded io.Reader
	switch transferEncoding {
	case "base64":
		decoded = base64.NewDecoder(base64.StdEncoding, reader)
	case "quoted-printable":
		decoded = quotedprintable.NewReader(reader)
	default:
		// 7bit、8bit、binary 以及未知编码都直接读取
		decoded = reader
	}

	body, err := io.ReadAll(decoded)
	if err != nil {
		return "", err
	}

	charset = strings.ToLower(strings.TrimSpace(charset))
	if charset != "" && charset != "utf-8" && charset != "us-ascii" {
		if enc := charsetEncoding(charset); enc != nil {
			converted, _, err := transform.Bytes(enc.NewDecoder(), body)
			if err == nil {
				body = converted
			}
		}
	}

	return string(body), nil
}

// charsetEncoding 根据字符集名称返回编码器，未知字符集返回 nil。
func charsetEncoding(charset string) encoding.Encoding {
	switch charset {
	case "gb2312", "gbk", "gb18030":
		return simplifiedchinese.GBK
	case "big5":
		return traditionalchinese.Big5
	case "iso-2022-jp", "shift_jis", "euc-jp":
		return japanese.ShiftJIS
	case "euc-kr", "ks_c_5601-1987":
		return korean.EUCKR
	default:
		return nil
	}
}

// decodeHeader 解码 RFC 2047 编码的头部，失败时原样返回。
func decodeHeader(value string) string {
	if value == "" {
		return value
	}
	decoder := new(mime.WordDecoder)
	decoded, err := decoder.DecodeHeader(value)
	if err != nil {
		return value
	}
	return decoded
}
