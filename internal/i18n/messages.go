package i18n

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Message catalog keys. The key doubles as the English text.
const (
	MsgNotElevated     = "administrator privileges required"
	MsgEmptyRuleName   = "rule name cannot be empty"
	MsgInvalidRuleName = "invalid rule name: %s"
	MsgProgramMissing  = "program missing: %s"
	MsgInvalidPort     = "invalid port: %d"
	MsgInvalidProtocol = "invalid protocol: %s"
	MsgInvalidIP       = "invalid IP address: %s"
	MsgInvalidPath     = "invalid policy file path: %s"
	MsgFileMissing     = "file missing: %s"

	MsgRuleAdded      = "rule added"
	MsgAddFailed      = "add failed: %s"
	MsgRuleDeleted    = "rule deleted"
	MsgDeleteFailed   = "delete failed: %s"
	MsgRuleNotFound   = "rule not found"
	MsgRuleExists     = "rule exists"
	MsgCheckFailed    = "check failed: %s"
	MsgRulesListed    = "listed %d rules"
	MsgListFailed     = "list failed: %s"
	MsgRuleEnabled    = "rule enabled"
	MsgRuleDisabled   = "rule disabled"
	MsgSetFailed      = "operation failed: %s"
	MsgPolicyExported = "policy exported to: %s"
	MsgExportFailed   = "export failed: %s"
	MsgPolicyImported = "policy imported"
	MsgImportFailed   = "import failed: %s"
	MsgFirewallReset  = "firewall reset"
	MsgResetFailed    = "reset failed: %s"
	MsgTimedOut       = "command timed out after %s"

	MsgUnsupportedOS      = "only Windows is supported"
	MsgServiceNotRunning  = "Windows Firewall service is not running"
	MsgServiceCheckFailed = "cannot query Windows Firewall service: %s"
	MsgPreflightPassed    = "system check passed"
)

var zhHans = map[string]string{
	MsgNotElevated:     "需要管理员权限",
	MsgEmptyRuleName:   "规则名称不能为空",
	MsgInvalidRuleName: "规则名称无效: %s",
	MsgProgramMissing:  "程序不存在: %s",
	MsgInvalidPort:     "端口号无效: %d",
	MsgInvalidProtocol: "协议无效: %s",
	MsgInvalidIP:       "IP地址无效: %s",
	MsgInvalidPath:     "策略文件路径无效: %s",
	MsgFileMissing:     "文件不存在: %s",

	MsgRuleAdded:      "规则添加成功",
	MsgAddFailed:      "添加失败: %s",
	MsgRuleDeleted:    "规则删除成功",
	MsgDeleteFailed:   "删除失败: %s",
	MsgRuleNotFound:   "规则不存在",
	MsgRuleExists:     "规则已存在",
	MsgCheckFailed:    "检查失败: %s",
	MsgRulesListed:    "成功获取 %d 条规则",
	MsgListFailed:     "获取规则失败: %s",
	MsgRuleEnabled:    "规则已启用",
	MsgRuleDisabled:   "规则已禁用",
	MsgSetFailed:      "操作失败: %s",
	MsgPolicyExported: "策略已导出到: %s",
	MsgExportFailed:   "导出失败: %s",
	MsgPolicyImported: "策略导入成功",
	MsgImportFailed:   "导入失败: %s",
	MsgFirewallReset:  "防火墙已重置",
	MsgResetFailed:    "重置失败: %s",
	MsgTimedOut:       "命令执行超时 (%s)",

	MsgUnsupportedOS:      "仅支持Windows操作系统",
	MsgServiceNotRunning:  "Windows防火墙服务未运行",
	MsgServiceCheckFailed: "无法查询Windows防火墙服务: %s",
	MsgPreflightPassed:    "系统检查通过",
}

func init() {
	for key, msg := range zhHans {
		if err := message.SetString(language.SimplifiedChinese, key, msg); err != nil {
			panic("i18n: " + err.Error())
		}
	}
}
