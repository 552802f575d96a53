package logging

import "github.com/sirupsen/logrus"

// BaseFields 构建 action + 配置路径等基础字段，便于不同入口复用。
func BaseFields(action, configPath string) logrus.Fields {
	return logrus.Fields{
		"action":     action,
		"configPath": configPath,
	}
}

// PackageFields 描述一次针对具体包的操作；version 为空时省略。
func PackageFields(action, pkg, version string) logrus.Fields {
	fields := logrus.Fields{
		"action":  action,
		"package": pkg,
	}
	if version != "" {
		fields["version"] = version
	}
	return fields
}

// RequestFields 提供 HTTP 请求日志字段，source 为命中的注册表引用。
func RequestFields(requestID, method, path string, status int, source string) logrus.Fields {
	return logrus.Fields{
		"request_id": requestID,
		"method":     method,
		"path":       path,
		"status":     status,
		"source":     source,
	}
}
