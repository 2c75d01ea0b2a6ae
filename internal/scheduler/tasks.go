package scheduler

import (
	"encoding/json"

	"github.com/hibiken/asynq"

	"bidrelay_backend/internal/conversation"
)

const TaskMailChainSend = "mail.chain.send"

const TaskArchiveUpload = "archive.upload"

// MailChainSendPayload carries one descriptor (and, through its Followup
// links, the whole remaining chain) across the queue.
type MailChainSendPayload struct {
	Descriptor *conversation.Descriptor `json:"descriptor"`
}

// ArchiveUploadPayload carries one settlement sheet to push to the
// archive store. Fired independently of the email chain.
type ArchiveUploadPayload struct {
	LocalPath  string `json:"localPath"`
	RemoteName string `json:"remoteName"`
}

func NewMailChainSendTask(payload MailChainSendPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskMailChainSend, data), nil
}

func ParseMailChainSendPayload(task *asynq.Task) (MailChainSendPayload, error) {
	var payload MailChainSendPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return MailChainSendPayload{}, err
	}
	return payload, nil
}

func NewArchiveUploadTask(payload ArchiveUploadPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskArchiveUpload, data), nil
}

func ParseArchiveUploadPayload(task *asynq.Task) (ArchiveUploadPayload, error) {
	var payload ArchiveUploadPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return ArchiveUploadPayload{}, err
	}
	return payload, nil
}
